// Package expression defines the puzzle variants carried inside a challenge token.
//
// Every variant implements [Expression]: it can be generated from parameters, rendered to its
// canonical text, solved deterministically, and serialized to a JSON object whose first field is
// the "type" discriminator. [Unmarshal] dispatches on that discriminator through a registry, so
// new variants can be added with [Register] without touching the token protocol.
//
// # Built-in variants
//
//   - [Code]: an opaque base-36 string; the solution is the string itself.
//   - [Math]: operands in [1,9] joined by + or -; the solution is the decimal fold result.
//
// # What this package must NOT do
//
//   - Encrypt, sign, or otherwise know about the token envelope.
//   - Use a non-cryptographic random source for generation.
package expression
