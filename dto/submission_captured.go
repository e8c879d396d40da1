package dto

import (
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
)

// SubmissionCaptured is published once per assembled submission for the
// server-side dataLayer listener.
type SubmissionCaptured struct {
	Record     datalayer.EventRecord `json:"record"`
	Origin     enum.SubmissionOrigin `json:"origin"`
	SessionKey string                `json:"sessionKey"`
}
