package internaldefs

import (
	goCaptcha "github.com/MrEthical07/goCaptcha"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goCaptcha.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   goCaptcha.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goCaptcha.MetricIssueSuccess, Name: "gocaptcha_issue_success_total", Help: "Challenges issued."},
	{ID: goCaptcha.MetricIssueFailure, Name: "gocaptcha_issue_failure_total", Help: "Failed challenge issuances."},
	{ID: goCaptcha.MetricVerifyAccepted, Name: "gocaptcha_verify_accepted_total", Help: "Verifications with a correct, unexpired solution."},
	{ID: goCaptcha.MetricVerifyInvalidData, Name: "gocaptcha_verify_invalid_data_total", Help: "Verifications rejected for forged, corrupt, or malformed tokens."},
	{ID: goCaptcha.MetricVerifyExpired, Name: "gocaptcha_verify_expired_total", Help: "Verifications rejected because the challenge expired."},
	{ID: goCaptcha.MetricVerifyInvalidSolution, Name: "gocaptcha_verify_invalid_solution_total", Help: "Verifications rejected for a wrong solution."},
	{ID: goCaptcha.MetricVerifyFatal, Name: "gocaptcha_verify_fatal_total", Help: "Verifications aborted on an unknown expression kind."},
	{ID: goCaptcha.MetricPassIssued, Name: "gocaptcha_pass_issued_total", Help: "Passes minted after accepted verifications."},
	{ID: goCaptcha.MetricPassRejected, Name: "gocaptcha_pass_rejected_total", Help: "Passes rejected by ValidatePass."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goCaptcha.MetricVerifyLatency, Name: "gocaptcha_verify_latency_seconds", Help: "Verify latency histogram."},
}

// AuditDroppedName is the counter exported for AuditDropped.
const (
	AuditDroppedName = "gocaptcha_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth bucket is +Inf.
var HistogramUpperBounds = [7]float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// HistogramBounds are the le label values, +Inf included.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
