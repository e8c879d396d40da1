package datalayer

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/fieldmap"
	"github.com/customeros/formlayer/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func newTestAssembler() *Assembler {
	cfg := &config.DataLayerConfig{SubmissionPrefix: "wpforms"}
	return NewAssembler(cfg, getLogger(), WithClock(fixedClock), WithDigits(func() string { return "4821" }))
}

func TestAssembler_Assemble_ExcludedEmailAndFullName(t *testing.T) {
	// Arrange
	sub := Submission{
		FormID:    "12",
		FormTitle: "Contatti",
		Fields: []fieldmap.Field{
			{ID: "1", Label: "Email", Type: fieldmap.FieldTypeEmail, Value: "mario@example.com"},
			{ID: "2", Label: "Nome e cognome", Type: fieldmap.FieldTypeText, Value: "Mario Rossi"},
		},
		Settings: Settings{ExcludedFieldIDs: " 1 , 7"},
	}

	// Act
	record, err := newTestAssembler().Assemble(context.Background(), sub)

	// Assert
	require.NoError(t, err)
	for key := range record.FormFields {
		assert.False(t, strings.HasPrefix(key, "Email"), "unexpected key %s", key)
	}
	assert.Equal(t, "Mario", record.FormFields["nome"])
	assert.Equal(t, "Rossi", record.FormFields["cognome"])
	assert.Equal(t, fieldmap.HashSHA256("mario"), record.FormFields["nome_hash"])
	assert.Equal(t, fieldmap.HashSHA256("rossi"), record.FormFields["cognome_hash"])
}

func TestAssembler_Assemble_Defaults(t *testing.T) {
	record, err := newTestAssembler().Assemble(context.Background(), Submission{FormID: "12", FormTitle: "Contatti"})

	require.NoError(t, err)
	assert.Equal(t, DefaultEventName, record.Event)
	assert.Equal(t, "12", record.FormID)
	assert.Equal(t, "Contatti", record.FormTitle)
	assert.Equal(t, fixedClock().Unix(), record.Timestamp)
	assert.Equal(t, "wpforms_12_1709287200_4821", record.SubmissionID)
	assert.False(t, record.Debug)
	assert.NotNil(t, record.FormFields)
}

func TestAssembler_Assemble_Settings(t *testing.T) {
	sub := Submission{FormID: "5", Settings: Settings{EventName: "lead_generated", Debug: true}}

	record, err := newTestAssembler().Assemble(context.Background(), sub)

	require.NoError(t, err)
	assert.Equal(t, "lead_generated", record.Event)
	assert.True(t, record.Debug)
}

func TestAssembler_Assemble_ConfiguredDefaultEvent(t *testing.T) {
	cfg := &config.DataLayerConfig{DefaultEventName: "form_sent"}
	a := NewAssembler(cfg, getLogger(), WithClock(fixedClock))

	record, err := a.Assemble(context.Background(), Submission{FormID: "5"})

	require.NoError(t, err)
	assert.Equal(t, "form_sent", record.Event)
	assert.Regexp(t, regexp.MustCompile(`^wpforms_5_1709287200_[1-9][0-9]{3}$`), record.SubmissionID)
}

func TestAssembler_Assemble_MissingFormID(t *testing.T) {
	_, err := newTestAssembler().Assemble(context.Background(), Submission{})

	assert.ErrorIs(t, err, ErrMissingFormID)
}

func TestEventRecord_StrippedOmitsDebug(t *testing.T) {
	record := EventRecord{Event: "e", SubmissionID: "id", Debug: true, FormFields: map[string]any{}}

	raw, err := json.Marshal(record.Stripped())

	require.NoError(t, err)
	assert.NotContains(t, string(raw), "debug")
	assert.True(t, record.Debug)
}
