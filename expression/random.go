package expression

import (
	"crypto/rand"
	"math/big"
)

// randomInt returns a uniform integer in [0, n) from crypto/rand.
func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
