// Package transform holds the per-record cleaning stages: structural
// validation with normalization, and field derivation. Both stages are pure
// per record, so the deriver can fan out across workers.
package transform

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
)

// Validator drops structurally incomplete records and normalizes text fields.
type Validator struct {
	log     *zap.Logger
	dropped atomic.Int64
}

// NewValidator creates a new validator stage
func NewValidator(log *zap.Logger) *Validator {
	return &Validator{log: log}
}

// Start consumes raw events, emitting only records with all required fields,
// normalized in place. Closes out when in closes.
func (v *Validator) Start(ctx context.Context, in <-chan *domain.RawEvent, out chan<- *domain.RawEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			v.log.Info("Validator stage shutting down")
			return
		case event, ok := <-in:
			if !ok {
				return
			}

			if !event.HasRequiredFields() {
				// Malformed input is expected in upstream telemetry; dropping
				// is not an error.
				v.dropped.Add(1)
				continue
			}

			Normalize(event)

			select {
			case <-ctx.Done():
				return
			case out <- event:
			}
		}
	}
}

// Dropped returns the number of records dropped for missing required fields.
func (v *Validator) Dropped() int64 {
	return v.dropped.Load()
}

// Normalize lower-cases and trims event_type and trims category, in place.
// Normalizing an already-normalized record is a no-op.
func Normalize(event *domain.RawEvent) {
	if event.EventType != nil {
		*event.EventType = strings.ToLower(strings.TrimSpace(*event.EventType))
	}
	if event.Category != nil {
		*event.Category = strings.TrimSpace(*event.Category)
	}
}
