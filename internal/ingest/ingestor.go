package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salestats/internal/core"
	"salestats/internal/log"
	"salestats/internal/ports"
)

const tracerName = "salestats/internal/ingest"

// Source yields the raw elements of the seed document.
type Source interface {
	URL() string
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

// Notifier is told about every completed run.
type Notifier interface {
	NotifySeeded(ctx context.Context, report core.SeedReport) error
}

// Ingestor loads the seed document into the store.
type Ingestor struct {
	source   Source
	writer   ports.TransactionWriter
	notifier Notifier
	logger   *log.Logger
	slog     *log.StructuredLogger
	now      func() time.Time
}

type Option func(*Ingestor)

// WithNotifier publishes the run report once ingestion has finished.
func WithNotifier(n Notifier) Option {
	return func(i *Ingestor) { i.notifier = n }
}

func NewIngestor(source Source, writer ports.TransactionWriter, logger *log.Logger, opts ...Option) *Ingestor {
	logger = logger.WithComponent(log.ComponentIngest)
	i := &Ingestor{
		source: source,
		writer: writer,
		logger: logger,
		slog:   log.NewStructuredLogger(logger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run fetches the seed document and inserts every element not already stored.
// A fetch failure is returned. Per-element decode or insert failures are logged,
// counted in the report and do not stop the run.
func (i *Ingestor) Run(ctx context.Context) (core.SeedReport, error) {
	start := i.now()
	report := core.SeedReport{Source: i.source.URL()}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "ingest.Run",
		trace.WithAttributes(attribute.String("seed.source", report.Source)))
	defer span.End()

	i.logger.InfoContext(ctx, "Fetching seed document", log.FieldSource, report.Source)
	elements, err := i.source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed fetch failed")
		return report, fmt.Errorf("seed fetch: %w", err)
	}
	report.Fetched = len(elements)

	for idx, raw := range elements {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "seed interrupted")
			return report, fmt.Errorf("seed interrupted after %d of %d elements: %w", idx, len(elements), err)
		}

		var t core.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			report.Failed++
			i.slog.LogError(ctx, "Failed to decode seed element", err, log.ComponentIngest, log.OpDecode,
				log.NewFields().WithTransaction(idx, 0).WithErrorType(log.ErrorTypeDecode))
			continue
		}

		inserted, err := i.writer.InsertIfAbsent(ctx, t)
		if err != nil {
			report.Failed++
			i.slog.LogError(ctx, "Failed to insert seed element", err, log.ComponentIngest, log.OpInsert,
				log.NewFields().WithTransaction(idx, t.ID).WithErrorType(log.ErrorTypeDatabase))
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Ignored++
		}
	}

	report.FinishedAt = i.now()
	report.Duration = report.FinishedAt.Sub(start)
	span.SetAttributes(
		attribute.Int("seed.fetched", report.Fetched),
		attribute.Int("seed.inserted", report.Inserted),
		attribute.Int("seed.ignored", report.Ignored),
		attribute.Int("seed.failed", report.Failed),
	)
	i.slog.LogSeedCompleted(ctx, report)

	if i.notifier != nil {
		if err := i.notifier.NotifySeeded(ctx, report); err != nil {
			i.slog.LogError(ctx, "Failed to publish seed report", err, log.ComponentAMQP, log.OpPublish, nil)
		}
	}

	return report, nil
}
