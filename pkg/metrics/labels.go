package metrics

// Result labels shared by callers.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)
