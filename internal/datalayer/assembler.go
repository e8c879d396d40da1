// Package datalayer assembles Event Records from submitted forms.
package datalayer

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/fieldmap"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

const submissionDigits = 4

var ErrMissingFormID = errors.New("form id is required")

type Assembler struct {
	cfg    *config.DataLayerConfig
	log    logger.Logger
	now    func() time.Time
	digits func() string
}

type AssemblerOption func(*Assembler)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithDigits replaces the random suffix generator of submission ids.
func WithDigits(digits func() string) AssemblerOption {
	return func(a *Assembler) {
		a.digits = digits
	}
}

func NewAssembler(cfg *config.DataLayerConfig, log logger.Logger, opts ...AssemblerOption) *Assembler {
	if cfg == nil {
		cfg = &config.DataLayerConfig{}
	}
	a := &Assembler{
		cfg:    cfg,
		log:    log,
		now:    utils.Now,
		digits: func() string { return utils.GenerateDigits(submissionDigits) },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the Event Record for one submission. Fields run through
// the field mapper in submission order; excluded ids are skipped.
func (a *Assembler) Assemble(ctx context.Context, sub Submission) (*EventRecord, error) {
	span, ctx := tracing.StartTracerSpan(ctx, "Assembler.Assemble")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFormId(span, sub.FormID)

	if strings.TrimSpace(sub.FormID) == "" {
		tracing.TraceErr(span, ErrMissingFormID)
		return nil, ErrMissingFormID
	}

	now := a.now()
	formFields, results := fieldmap.MapFields(sub.Fields, sub.Settings.Excluded())

	record := &EventRecord{
		Event:        sub.Settings.ResolvedEventName(a.cfg.DefaultEventName),
		FormID:       sub.FormID,
		FormTitle:    fieldmap.SanitizeText(sub.FormTitle),
		SubmissionID: FormatSubmissionID(a.submissionPrefix(), sub.FormID, now.Unix(), a.digits()),
		Timestamp:    now.Unix(),
		Debug:        sub.Settings.Debug,
		FormFields:   formFields,
	}

	var unclassified []string
	for _, res := range results {
		for _, w := range res.Warnings {
			a.log.Warnf("form %s submission %s: %s", sub.FormID, record.SubmissionID, w)
		}
		if res.Unclassified {
			unclassified = append(unclassified, res.Key)
		}
	}
	if len(unclassified) > 0 {
		a.log.Debugf("form %s: labels matched no tag: %s", sub.FormID, strings.Join(unclassified, ", "))
	}

	span.LogFields(
		log.String("submissionId", record.SubmissionID),
		log.Int("fields", len(formFields)),
		log.Int("unclassified", len(unclassified)),
	)
	tracing.TagEntity(span, record.SubmissionID)
	if record.Debug {
		tracing.LogObjectAsJson(span, "record", record)
	}

	return record, nil
}

func (a *Assembler) submissionPrefix() string {
	if a.cfg.SubmissionPrefix != "" {
		return a.cfg.SubmissionPrefix
	}
	return "wpforms"
}
