package dto

// SweepResult counts what one relay sweep removed.
type SweepResult struct {
	Records  int   `json:"records"`
	Expired  int64 `json:"expired"`
	Failures int   `json:"failures"`
}
