package enum

// SubmissionOrigin tells how the visitor submitted the form.
type SubmissionOrigin string

const (
	OriginFullPage SubmissionOrigin = "full_page"
	OriginAjax     SubmissionOrigin = "ajax"
)

func (o SubmissionOrigin) String() string {
	return string(o)
}

func (o SubmissionOrigin) IsValid() bool {
	return o == OriginFullPage || o == OriginAjax
}
