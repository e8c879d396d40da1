package datalayer

import (
	"fmt"
	"strings"

	"github.com/customeros/formlayer/internal/fieldmap"
	"github.com/customeros/formlayer/internal/utils"
)

const DefaultEventName = "wpforms_submission"

// EventRecord is the object pushed into the analytics queue for one submission.
type EventRecord struct {
	Event        string         `json:"event"`
	FormID       string         `json:"formId"`
	FormTitle    string         `json:"formTitle"`
	SubmissionID string         `json:"submissionId"`
	Timestamp    int64          `json:"timestamp"`
	Debug        bool           `json:"debug,omitempty"`
	FormFields   map[string]any `json:"formFields"`
}

// Stripped returns the record as it goes into a queue: the debug flag is
// internal and never pushed.
func (r EventRecord) Stripped() EventRecord {
	r.Debug = false
	return r
}

// Settings are the per-form knobs from the settings panel.
type Settings struct {
	EventName        string `json:"eventName"`
	ExcludedFieldIDs string `json:"excludedFieldIds"`
	Debug            bool   `json:"debug"`
}

// ResolvedEventName returns the configured event name, or fallback, or
// DefaultEventName.
func (s Settings) ResolvedEventName(fallback string) string {
	if name := strings.TrimSpace(s.EventName); name != "" {
		return name
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return DefaultEventName
}

// Excluded parses the comma separated id list into a set.
func (s Settings) Excluded() map[string]struct{} {
	return utils.SliceToSet(utils.SplitCommaList(s.ExcludedFieldIDs))
}

// Submission is the "form submission completed" signal from the host.
type Submission struct {
	FormID    string
	FormTitle string
	EntryID   string
	EntryMeta map[string]any
	Fields    []fieldmap.Field
	Settings  Settings
}

// FormatSubmissionID builds "<prefix>_<formId>_<unix>_<digits>".
func FormatSubmissionID(prefix, formID string, unix int64, digits string) string {
	return fmt.Sprintf("%s_%s_%d_%s", prefix, formID, unix, digits)
}

// Channel names a delivery path of an Event Record.
type Channel string

const (
	ChannelAjaxResponse  Channel = "ajax_response"
	ChannelConfirmation  Channel = "confirmation"
	ChannelSession       Channel = "session"
	ChannelFooterUnload  Channel = "footer_unload"
	ChannelFooterTimeout Channel = "footer_timeout"
	ChannelSuccessEvent  Channel = "success_event"
	ChannelBroker        Channel = "broker"
)
