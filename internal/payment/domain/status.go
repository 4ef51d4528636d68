package domain

import "strings"

// Outcome is the normalized meaning of a provider's free-form status string.
type Outcome string

const (
	OutcomeUnknown Outcome = "unknown"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ClassifyStatus maps a raw provider status to an outcome. This is the single
// classification point for every webhook entry path; the vocabulary is fixed
// by the providers we integrate with, do not extend it per endpoint.
//
// Success: any case-insensitive "success" token, TXN_SUCCESS, or "paid".
// Failure: any case-insensitive "fail" token, TXN_FAILURE, "failed", "canceled".
func ClassifyStatus(status string) Outcome {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "":
		return OutcomeUnknown
	case strings.Contains(s, "success"), s == "txn_success", s == "paid":
		return OutcomeSuccess
	case strings.Contains(s, "fail"), s == "txn_failure", s == "failed", s == "canceled":
		return OutcomeFailure
	default:
		return OutcomeUnknown
	}
}
