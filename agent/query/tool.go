// Package query turns a natural-language question into a validated,
// read-only SQL query scoped to one doctor, and executes it.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
	promptx "github.com/kittipos/clinic-concierge/agent/prompt"
)

// Generator is the single-shot prompt-to-text contract of the reasoning
// engine.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecordStore is the slice of the record store this tool may touch: schema
// description for prompting, and read-only execution.
type RecordStore interface {
	TableInfo(ctx context.Context) (string, error)
	ReadOnlyQuery(ctx context.Context, query string) (string, error)
}

type Option func(*Tool)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(t *Tool) {
		if now != nil {
			t.now = now
		}
	}
}

type Tool struct {
	gen     Generator
	store   RecordStore
	prompts promptx.PromptSet
	now     func() time.Time
}

func New(gen Generator, store RecordStore, prompts promptx.PromptSet, opts ...Option) (*Tool, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator is required", contractx.ErrValidation)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: record store is required", contractx.ErrValidation)
	}
	t := &Tool{
		gen:     gen,
		store:   store,
		prompts: prompts,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Ask answers the question with a generated, gated SELECT. The doctor
// identity comes from the authenticated session, never from the question
// text; an empty identity is a rejection, not a fallback.
func (t *Tool) Ask(ctx context.Context, doctorID, question string) (string, error) {
	if strings.TrimSpace(doctorID) == "" {
		return "", fmt.Errorf("%w: doctor identity is missing", contractx.ErrQueryRejected)
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is empty", contractx.ErrValidation)
	}

	tableInfo, err := t.store.TableInfo(ctx)
	if err != nil {
		return "", err
	}

	today := t.now().Format("2006-01-02")
	prompt := t.prompts.RenderSQLGen(tableInfo, today, doctorID, question)

	raw, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: sql generation: %v", contractx.ErrModelInvoke, err)
	}

	sqlQuery := Sanitize(raw)
	if err := Validate(sqlQuery); err != nil {
		log.Warn().Str("doctor_id", doctorID).Str("query", sqlQuery).Err(err).Msg("generated query rejected")
		return "", err
	}

	log.Debug().Str("doctor_id", doctorID).Str("query", sqlQuery).Msg("executing generated query")
	result, err := t.store.ReadOnlyQuery(ctx, sqlQuery)
	if err != nil {
		return "", err
	}
	return "Result:\n" + result, nil
}
