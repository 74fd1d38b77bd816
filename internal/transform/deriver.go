package transform

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
)

// Timestamp layouts accepted for raw events. Zone-less timestamps are
// interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DeriverConfig configures the field deriver
type DeriverConfig struct {
	// Workers is the number of concurrent derivation workers. Derivation is
	// pure per record and order-independent.
	Workers int
	// StrictTimestamps fails the whole job on the first unparseable
	// timestamp. When false (the default policy) such records are dropped
	// and counted.
	StrictTimestamps bool
}

// Deriver computes event_ts, the partition keys, and the revenue metric, and
// sanitizes out-of-range numeric values.
type Deriver struct {
	config  DeriverConfig
	log     *zap.Logger
	dropped atomic.Int64
}

// NewDeriver creates a new deriver stage
func NewDeriver(config DeriverConfig, log *zap.Logger) *Deriver {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Deriver{config: config, log: log}
}

// Start fans normalized raw events out across the worker pool and emits
// cleaned events. Closes out when all workers finish. Returns an error only
// under the strict timestamp policy.
func (d *Deriver) Start(ctx context.Context, in <-chan *domain.RawEvent, out chan<- *domain.CleanedEvent) error {
	defer close(out)

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	// Closed on the first strict-mode error so sibling workers stop deriving
	// and emitting instead of racing the job cancellation.
	stop := make(chan struct{})

	wg.Add(d.config.Workers)
	for i := 0; i < d.config.Workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stop:
					return
				case event, ok := <-in:
					if !ok {
						return
					}

					cleaned, err := d.Derive(event)
					if err != nil {
						if d.config.StrictTimestamps {
							once.Do(func() {
								firstErr = err
								close(stop)
							})
							return
						}
						d.dropped.Add(1)
						d.log.Debug("Dropping record with unparseable timestamp",
							zap.Error(err))
						continue
					}

					select {
					case <-ctx.Done():
						return
					case <-stop:
						return
					case out <- cleaned:
					}
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// Dropped returns the number of records dropped for unparseable timestamps.
func (d *Deriver) Dropped() int64 {
	return d.dropped.Load()
}

// Derive converts one validated, normalized raw event into a cleaned event.
// The input must have passed validation; required fields are dereferenced.
func (d *Deriver) Derive(event *domain.RawEvent) (*domain.CleanedEvent, error) {
	eventTS, err := parseTimestamp(*event.Timestamp)
	if err != nil {
		return nil, err
	}
	eventTS = eventTS.UTC()

	cleaned := &domain.CleanedEvent{
		EventTS:     eventTS,
		EventDate:   eventTS.Format("2006-01-02"),
		UserID:      *event.UserID,
		SessionID:   *event.SessionID,
		EventType:   *event.EventType,
		ProductID:   event.ProductID,
		Quantity:    coerceQuantity(event.Quantity),
		Price:       coercePrice(event.Price),
		Category:    event.Category,
		SearchQuery: event.SearchQuery,
	}

	if cleaned.EventType == domain.EventTypePurchase && cleaned.Price != nil && cleaned.Quantity != nil {
		revenue := cleaned.Price.Mul(decimal.NewFromInt32(*cleaned.Quantity))
		cleaned.Revenue = &revenue
	}

	return cleaned, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// coerceQuantity truncates to int32 and maps negative or out-of-range values
// to nil. A bad quantity is sanitized, never clamped. The range check comes
// first: converting a float64 outside int32 range is unspecified in Go.
func coerceQuantity(raw *float64) *int32 {
	if raw == nil || *raw < math.MinInt32 || *raw > math.MaxInt32 {
		return nil
	}
	quantity := int32(*raw)
	if quantity < 0 {
		return nil
	}
	return &quantity
}

// coercePrice converts to decimal and maps negative values to nil.
func coercePrice(raw *float64) *decimal.Decimal {
	if raw == nil {
		return nil
	}
	price := decimal.NewFromFloat(*raw)
	if price.IsNegative() {
		return nil
	}
	return &price
}
