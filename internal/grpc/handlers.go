package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

type CacheKeyType string

const (
	cacheKeyScorecard CacheKeyType = "grpc:scorecard"
	cacheKeyOutcomes  CacheKeyType = "grpc:outcomes"
	cacheKeyCompare   CacheKeyType = "grpc:compare"
)

type entityRequest struct {
	ID string `json:"id" validate:"required"`
}

type compareRequest struct {
	IDs              []string `json:"ids" validate:"required,dive,required"`
	OfferingLimit    int      `json:"offeringLimit" validate:"gte=0"`
	ShowAllOfferings bool     `json:"showAllOfferings"`
}

type GRPCHandlers struct {
	svc      EvaluationService
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

var _ EvaluationServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil.
func NewGRPCHandlers(svc EvaluationService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if svc == nil {
		panic("nil EvaluationService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &GRPCHandlers{
		svc:      svc,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
	}
}

// normalizeKey joins trimmed key parts. Entity IDs keep their order because
// column order is part of a comparison.
func normalizeKey(prefix CacheKeyType, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(prefix))
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(p))
	}
	return b.String()
}

func decodeRequest(in *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "unreadable request: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := catalog.ValidateStruct("request", dst); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrEntityNotFound):
		s.logger.Info("entity not found", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, "entity not found")
	case errors.Is(err, service.ErrCorruptRecord):
		s.logger.Error("stored record rejected", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "stored record is invalid")
	case errors.Is(err, service.ErrInvalidComparison), errors.Is(err, catalog.ErrMalformedInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) GetScorecard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in entityRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyScorecard, in.ID)

	sc, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (scoring.Scorecard, error) {
		return s.svc.GetScorecard(fetchCtx, in.ID)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetScorecard", err)
	}

	return encodeResponse(sc)
}

func (s *GRPCHandlers) GetOutcomeSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in entityRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyOutcomes, in.ID)

	res, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.EntityOutcomes, error) {
		return s.svc.GetOutcomeSummary(fetchCtx, in.ID)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetOutcomeSummary", err)
	}

	return encodeResponse(res)
}

func (s *GRPCHandlers) CompareEntities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in compareRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyCompare,
		strings.Join(in.IDs, ","),
		strconv.Itoa(in.OfferingLimit),
		strconv.FormatBool(in.ShowAllOfferings))
	opts := service.CompareOptions{OfferingLimit: in.OfferingLimit, ShowAllOfferings: in.ShowAllOfferings}

	cmp, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (comparison.Comparison, error) {
		return s.svc.Compare(fetchCtx, in.IDs, opts)
	})
	if err != nil {
		return nil, s.handleError(ctx, "CompareEntities", err)
	}

	return encodeResponse(cmp)
}
