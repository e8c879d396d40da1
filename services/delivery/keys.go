package delivery

import "strings"

// Keys names the relay entries under one prefix.
type Keys struct {
	Prefix string
}

func (k Keys) Ajax(submissionID string) string {
	return k.Prefix + "_ajax_" + submissionID
}

func (k Keys) Cleanup(submissionID string) string {
	return k.Prefix + "_cleanup_" + submissionID
}

// LastSubmission is scoped by session so two visitors of one form never
// read each other's pointer.
func (k Keys) LastSubmission(formID, sessionKey string) string {
	return k.Prefix + "_last_submission_id_" + formID + "_" + sessionKey
}

func (k Keys) Session(sessionKey string) string {
	return k.Prefix + "_session_" + sessionKey
}

func (k Keys) Fallback(sessionKey string) string {
	return k.Prefix + "_fallback_" + sessionKey
}

func (k Keys) AjaxPrefix() string {
	return k.Prefix + "_ajax_"
}

func (k Keys) CleanupPrefix() string {
	return k.Prefix + "_cleanup_"
}

// SubmissionIDFromAjax returns the submission id of an ajax record name.
func (k Keys) SubmissionIDFromAjax(name string) (string, bool) {
	if !strings.HasPrefix(name, k.AjaxPrefix()) {
		return "", false
	}
	return strings.TrimPrefix(name, k.AjaxPrefix()), true
}
