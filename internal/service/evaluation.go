package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/dimension"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/repository"
	"github.com/godilite/wellness-eval/internal/repository/models"
	"github.com/godilite/wellness-eval/internal/telemetry"
)

const (
	dbTimeout = 2 * time.Second

	defaultOfferingLimit = 8
	instrumentationScope = "wellness-eval/service"
)

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidComparison = errors.New("invalid comparison")
	// ErrCorruptRecord wraps catalog.ErrMalformedInput for data that was
	// already stored, as opposed to data supplied with a request.
	ErrCorruptRecord = errors.New("stored record failed validation")
)

// EvaluationService loads catalogue snapshots and runs them through the
// scoring, outcome and comparison engines. It keeps no computed state between
// calls.
type EvaluationService struct {
	storage       CatalogRepository
	table         *dimension.Table
	logger        *zap.Logger
	tracer        trace.Tracer
	maxEntities   int
	offeringLimit int

	comparisons metric.Int64Counter
	rejected    metric.Int64Counter
}

type Option func(*EvaluationService)

// WithMaxEntities caps how many entities one comparison may hold.
func WithMaxEntities(n int) Option {
	return func(s *EvaluationService) {
		if n >= 2 {
			s.maxEntities = n
		}
	}
}

// WithOfferingLimit sets how many offering rows a comparison shows collapsed.
func WithOfferingLimit(n int) Option {
	return func(s *EvaluationService) {
		if n > 0 {
			s.offeringLimit = n
		}
	}
}

// NewEvaluationService creates a new EvaluationService instance.
func NewEvaluationService(storage CatalogRepository, table *dimension.Table, logger *zap.Logger, opts ...Option) *EvaluationService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if table == nil {
		panic("dimension table must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := telemetry.Meter(instrumentationScope)
	comparisons := newCounter(meter, logger, "wellness.comparisons",
		"Comparisons built, by number of entities")
	rejected := newCounter(meter, logger, "wellness.malformed_records",
		"Stored records rejected by boundary validation")

	s := &EvaluationService{
		storage:       storage,
		table:         table,
		logger:        logger.Named("evaluation"),
		tracer:        telemetry.Tracer(instrumentationScope),
		maxEntities:   comparison.DefaultMaxEntities,
		offeringLimit: defaultOfferingLimit,
		comparisons:   comparisons,
		rejected:      rejected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newCounter returns a noop counter, after logging, when the meter cannot
// create the instrument.
func newCounter(meter metric.Meter, logger *zap.Logger, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		logger.Warn("metric counter unavailable", zap.String("name", name), zap.Error(err))
		return noop.Int64Counter{}
	}
	return c
}

// MaxEntities is the comparison width.
func (s *EvaluationService) MaxEntities() int { return s.maxEntities }

func (s *EvaluationService) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "EvaluationService."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func storageErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrEntityNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageFailure, op, err)
}

// GetEntity loads one entity with all of its child records and validates it
// at the boundary.
func (s *EvaluationService) GetEntity(ctx context.Context, id string) (e catalog.Entity, err error) {
	ctx, span := s.startSpan(ctx, "GetEntity", attribute.String("entity.id", id))
	defer func() { endSpan(span, err) }()

	return s.loadEntity(ctx, id)
}

func (s *EvaluationService) loadEntity(ctx context.Context, id string) (catalog.Entity, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row, err := s.storage.GetEntity(dbCtx, id)
	if err != nil {
		return catalog.Entity{}, storageErr("get entity", err)
	}

	b := models.EntityBundle{Entity: row}
	g, gctx := errgroup.WithContext(dbCtx)
	g.Go(func() (err error) {
		b.Dimensions, err = s.storage.GetDimensionScores(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		b.Reviews, err = s.storage.GetReviews(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		b.Biomarkers, err = s.storage.GetBiomarkers(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		b.Offerings, err = s.storage.GetOfferings(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		b.Attributes, err = s.storage.GetAttributes(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return catalog.Entity{}, storageErr("load entity children", err)
	}

	e, err := entityFromBundle(b)
	if err == nil {
		err = catalog.Validate(e)
	}
	if err != nil {
		s.rejected.Add(ctx, 1)
		s.logger.Warn("stored entity failed validation", zap.String("entity_id", id), zap.Error(err))
		return catalog.Entity{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return e, nil
}

// ListEntities lists the catalogue, optionally narrowed to one tier.
func (s *EvaluationService) ListEntities(ctx context.Context, tier catalog.Tier) (out []EntitySummary, err error) {
	ctx, span := s.startSpan(ctx, "ListEntities", attribute.String("tier", string(tier)))
	defer func() { endSpan(span, err) }()

	if tier != "" && !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", catalog.ErrMalformedInput, tier)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.ListEntities(dbCtx, string(tier))
	if err != nil {
		return nil, storageErr("list entities", err)
	}

	out = make([]EntitySummary, 0, len(rows))
	for _, r := range rows {
		summary := EntitySummary{
			ID:           r.ID,
			Name:         r.Name,
			Tier:         catalog.Tier(r.Tier),
			OverallScore: r.OverallScore,
		}
		if tc, ok := s.table.Tier(summary.Tier); ok {
			summary.TierLabel = tc.Label
		}
		if b, ok := scoring.CardBands.ClassifyOptional(r.OverallScore); ok {
			summary.Band = &b
		}
		out = append(out, summary)
	}

	s.logger.Debug("listed entities", zap.String("tier", string(tier)), zap.Int("count", len(out)))
	return out, nil
}

// GetScorecard builds the weighted scorecard of one entity against its tier
// average.
func (s *EvaluationService) GetScorecard(ctx context.Context, id string) (sc scoring.Scorecard, err error) {
	ctx, span := s.startSpan(ctx, "GetScorecard", attribute.String("entity.id", id))
	defer func() { endSpan(span, err) }()

	e, err := s.loadEntity(ctx, id)
	if err != nil {
		return scoring.Scorecard{}, err
	}

	avg, err := s.tierAverage(ctx, e.Tier)
	if err != nil {
		return scoring.Scorecard{}, err
	}

	sc = scoring.BuildScorecard(e, s.table, scoring.CardBands).WithPeerAverage(avg)
	if len(sc.Unmatched) > 0 {
		s.logger.Warn("entity has scores for dimensions outside its tier",
			zap.String("entity_id", id),
			zap.String("tier", string(e.Tier)),
			zap.Strings("dimensions", sc.Unmatched))
	}

	s.logger.Info("built scorecard",
		zap.String("entity_id", id),
		zap.Int("dimensions", len(sc.Dimensions)),
		zap.Bool("has_overall", sc.Overall != nil))
	return sc, nil
}

func (s *EvaluationService) tierAverage(ctx context.Context, tier catalog.Tier) (*float64, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	avg, err := s.storage.GetTierAverage(dbCtx, string(tier))
	if err != nil {
		return nil, storageErr("tier average", err)
	}
	return avg.Average, nil
}

// GetOutcomeSummary aggregates the stored reviews of one entity.
func (s *EvaluationService) GetOutcomeSummary(ctx context.Context, id string) (res EntityOutcomes, err error) {
	ctx, span := s.startSpan(ctx, "GetOutcomeSummary", attribute.String("entity.id", id))
	defer func() { endSpan(span, err) }()

	e, err := s.loadEntity(ctx, id)
	if err != nil {
		return EntityOutcomes{}, err
	}

	summary := outcome.Aggregate(e.Reviews)
	span.SetAttributes(attribute.Int("reviews", summary.TotalReviews))

	return EntityOutcomes{EntityID: e.ID, Name: e.Name, Outcomes: summary}, nil
}

// AggregateReviews validates a free-standing batch and aggregates it.
func (s *EvaluationService) AggregateReviews(ctx context.Context, records []catalog.ReviewRecord) (sum outcome.Summary, err error) {
	_, span := s.startSpan(ctx, "AggregateReviews", attribute.Int("reviews", len(records)))
	defer func() { endSpan(span, err) }()

	if err := catalog.ValidateReviews(records); err != nil {
		return outcome.Summary{}, err
	}
	return outcome.Aggregate(records), nil
}

// BuildRow renders one ad hoc comparison row.
func (s *EvaluationService) BuildRow(ctx context.Context, req RowRequest) (row comparison.Row, err error) {
	_, span := s.startSpan(ctx, "BuildRow", attribute.Int("values", len(req.Values)))
	defer func() { endSpan(span, err) }()

	if err := catalog.ValidateStruct("row", req); err != nil {
		return comparison.Row{}, err
	}
	mode, err := comparison.ParseHighlightMode(req.Highlight)
	if err != nil {
		return comparison.Row{}, err
	}

	opts := []comparison.RowOption{comparison.WithPad(req.Pad)}
	if req.ListLimit > 0 {
		opts = append(opts, comparison.WithListLimit(req.ListLimit))
	}
	return comparison.BuildRow(req.Label, req.Values, mode, opts...), nil
}

// Compare builds the side-by-side view of 2 to MaxEntities distinct
// entities, in the order given. Repeated IDs count once.
func (s *EvaluationService) Compare(ctx context.Context, ids []string, opts CompareOptions) (cmp comparison.Comparison, err error) {
	ctx, span := s.startSpan(ctx, "Compare", attribute.StringSlice("entity.ids", ids))
	defer func() { endSpan(span, err) }()

	set := comparison.NewSet(len(ids)+1, ids...)
	switch {
	case set.Len() < 2:
		return comparison.Comparison{}, fmt.Errorf("%w: need at least 2 distinct entities, got %d", ErrInvalidComparison, set.Len())
	case set.Len() > s.maxEntities:
		return comparison.Comparison{}, fmt.Errorf("%w: at most %d entities, got %d", ErrInvalidComparison, s.maxEntities, set.Len())
	}
	members := set.IDs()

	subjects := make([]comparison.Subject, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range members {
		g.Go(func() error {
			e, err := s.loadEntity(gctx, id)
			if err != nil {
				return err
			}
			avg, err := s.tierAverage(gctx, e.Tier)
			if err != nil {
				return err
			}
			subjects[i] = comparison.Subject{Entity: e, PeerAverage: avg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return comparison.Comparison{}, err
	}

	limit := opts.OfferingLimit
	if limit <= 0 {
		limit = s.offeringLimit
	}
	cmp, err = comparison.Build(subjects, s.table, comparison.Options{
		MaxColumns:       s.maxEntities,
		OfferingLimit:    limit,
		ShowAllOfferings: opts.ShowAllOfferings,
	})
	if err != nil {
		if errors.Is(err, comparison.ErrTooManyEntities) {
			return comparison.Comparison{}, fmt.Errorf("%w: %v", ErrInvalidComparison, err)
		}
		return comparison.Comparison{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	s.comparisons.Add(ctx, 1, metric.WithAttributes(attribute.Int("entities", len(members))))
	s.logger.Info("built comparison",
		zap.Strings("entity_ids", members),
		zap.Int("offerings", cmp.Offerings.Total),
		zap.Int("hidden_offerings", cmp.Offerings.Hidden))
	return cmp, nil
}

// ImportEntity validates and stores an entity, replacing any previous copy.
func (s *EvaluationService) ImportEntity(ctx context.Context, e catalog.Entity) (err error) {
	ctx, span := s.startSpan(ctx, "ImportEntity", attribute.String("entity.id", e.ID))
	defer func() { endSpan(span, err) }()

	if err := catalog.Validate(e); err != nil {
		return err
	}
	b, err := bundleFromEntity(e)
	if err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.storage.SaveEntity(dbCtx, b); err != nil {
		return storageErr("save entity", err)
	}

	s.logger.Info("imported entity",
		zap.String("entity_id", e.ID),
		zap.Int("reviews", len(e.Reviews)),
		zap.Int("offerings", len(e.Offerings)))
	return nil
}
