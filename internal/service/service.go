package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog/consolidator/internal/domain"
	"catalog/consolidator/internal/flatten"
	"catalog/consolidator/internal/observability"
	"catalog/consolidator/internal/schema"
	"catalog/consolidator/internal/sink"
	"catalog/consolidator/internal/source"
	"catalog/consolidator/internal/walker"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID    string
	Units    int
	Failures []*domain.UnitError
	Dataset  *domain.Dataset
	Warnings []schema.Warning
	Filled   int
	Duration time.Duration
}

type Service struct {
	sources []source.Source
	sinks   []sink.Sink
	workers int
	strict  bool
}

func NewService(sources []source.Source, sinks []sink.Sink, workers int, strict bool) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		sources: sources,
		sinks:   sinks,
		workers: workers,
		strict:  strict,
	}
}

// Run walks every input unit, unifies and flattens the combined records and
// hands the dataset to each sink. In strict mode the first failing unit
// aborts the run; otherwise failing units are reported and left out.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)

	units, err := source.AllUnits(ctx, s.sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to list input units: %w", err)
	}
	logger.Infof("🔄 Consolidating %d input units", len(units))

	perUnit, failures, err := s.walkUnits(ctx, logger, units)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before writing the dataset: %w", err)
	}

	var products []domain.Record
	for _, records := range perUnit {
		products = append(products, records...)
	}
	logger.Infof("Collected %d products from %d units", len(products), len(units)-len(failures))

	warnings := schema.NewWarningCollector(logger)
	unified := schema.Unify(products, warnings)
	logger.Debugf("All keys = %v", schema.Columns(unified))

	// Nested objects facing nulls in other records flatten to different
	// columns, so the flat rows are reconciled once more.
	rows := schema.Unify(flatten.Records(unified), warnings)

	dataset := &domain.Dataset{
		RunID:   runID,
		Columns: schema.Columns(rows),
		Rows:    rows,
	}

	observability.RecordsTotal.Add(float64(len(rows)))
	observability.NullFilledTotal.Add(float64(warnings.Filled()))
	observability.DatasetColumns.Set(float64(len(dataset.Columns)))

	for _, out := range s.sinks {
		if err := out.Write(ctx, dataset); err != nil {
			return nil, fmt.Errorf("failed to write dataset to %s sink: %w", out.Name(), err)
		}
	}

	logger.Infof("Dataset({features: %d, num_rows: %d})", len(dataset.Columns), len(dataset.Rows))

	return &Result{
		RunID:    runID,
		Units:    len(units),
		Failures: failures,
		Dataset:  dataset,
		Warnings: warnings.Warnings(),
		Filled:   warnings.Filled(),
		Duration: time.Since(started),
	}, nil
}

// walkUnits loads and walks units with up to s.workers in flight. Results
// keep the unit order regardless of completion order.
func (s *Service) walkUnits(ctx context.Context, logger log.FieldLogger, units []source.Unit) ([][]domain.Record, []*domain.UnitError, error) {
	perUnit := make([][]domain.Record, len(units))

	var (
		mu       sync.Mutex
		failures []*domain.UnitError
	)

	parent := ctx
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, unit := range units {
		g.Go(func() error {
			records, err := walkUnit(ctx, unit)
			if err != nil {
				// Cancellation is not a unit failure; it ends the run in both modes.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				observability.UnitsTotal.WithLabelValues("failed").Inc()
				unitErr := &domain.UnitError{Unit: unit.Name, Err: err}
				if s.strict {
					return unitErr
				}
				logger.Errorf("❌ Skipping %s: %v", unit.Name, err)
				mu.Lock()
				failures = append(failures, unitErr)
				mu.Unlock()
				return nil
			}

			observability.UnitsTotal.WithLabelValues("ok").Inc()
			logger.Debugf("✅ %s: %d products", unit.Name, len(records))
			perUnit[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var unitErr *domain.UnitError
		if errors.As(err, &unitErr) {
			logger.Errorf("❌ Aborting: %v", err)
		}
		return nil, nil, err
	}

	if err := parent.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(failures, func(a, b int) bool { return failures[a].Unit < failures[b].Unit })
	return perUnit, failures, nil
}

func walkUnit(ctx context.Context, unit source.Unit) ([]domain.Record, error) {
	tree, err := unit.Load(ctx)
	if err != nil {
		return nil, err
	}
	return walker.WalkTree(tree)
}
