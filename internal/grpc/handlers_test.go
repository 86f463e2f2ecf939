package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/grpc/mocks"
	"github.com/godilite/wellness-eval/internal/service"
	"github.com/godilite/wellness-eval/pkg/grpc/server"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func sampleScorecard(id string) scoring.Scorecard {
	overall := 92.0
	return scoring.Scorecard{
		EntityID:  id,
		Name:      "Lanserhof",
		Tier:      catalog.TierOne,
		TierLabel: "Medical Wellness",
		Overall:   &overall,
		Band:      &scoring.Band{Label: "Exceptional", Token: "exceptional", Min: 90},
	}
}

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockSvc := &mocks.MockEvaluationService{}
		mockCache := &mocks.MockCacher{}
		ttl := 5 * time.Minute

		handlers := NewGRPCHandlers(mockSvc, mockCache, zap.NewNop(), ttl)

		assert.NotNil(t, handlers)
		assert.Equal(t, mockSvc, handlers.svc)
		assert.Equal(t, mockCache, handlers.cache)
		assert.Equal(t, ttl, handlers.cacheTTL)
		assert.NotNil(t, handlers.logger)
	})

	t.Run("nil service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, &mocks.MockCacher{}, zap.NewNop(), time.Minute)
		})
	})

	t.Run("non-positive TTL uses default", func(t *testing.T) {
		for _, ttl := range []time.Duration{0, -time.Minute} {
			handlers := NewGRPCHandlers(&mocks.MockEvaluationService{}, nil, nil, ttl)
			assert.Equal(t, defaultCacheDuration, handlers.cacheTTL)
		}
	})
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		prefix   CacheKeyType
		parts    []string
		expected string
	}{
		{cacheKeyScorecard, []string{"lanserhof"}, "grpc:scorecard:lanserhof"},
		{cacheKeyOutcomes, []string{" ananda "}, "grpc:outcomes:ananda"},
		{cacheKeyCompare, []string{"b,a", "0", "true"}, "grpc:compare:b,a:0:true"},
		{cacheKeyCompare, nil, "grpc:compare"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeKey(tt.prefix, tt.parts...))
	}
}

func TestAddTTLJitter(t *testing.T) {
	for range 50 {
		got := addTTLJitter(10 * time.Minute)
		assert.GreaterOrEqual(t, got, 9*time.Minute)
		assert.LessOrEqual(t, got, 11*time.Minute)
	}
	assert.Equal(t, time.Duration(0), addTTLJitter(0))
}

func TestRequestValidation(t *testing.T) {
	handlers := NewGRPCHandlers(&mocks.MockEvaluationService{}, nil, zap.NewNop(), time.Minute)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"missing id", func() error {
			_, err := handlers.GetScorecard(ctx, mustStruct(t, map[string]any{}))
			return err
		}},
		{"unknown field", func() error {
			_, err := handlers.GetOutcomeSummary(ctx, mustStruct(t, map[string]any{"id": "x", "period": "2025"}))
			return err
		}},
		{"ids missing", func() error {
			_, err := handlers.CompareEntities(ctx, mustStruct(t, map[string]any{}))
			return err
		}},
		{"blank id in list", func() error {
			_, err := handlers.CompareEntities(ctx, mustStruct(t, map[string]any{"ids": []any{"a", ""}}))
			return err
		}},
		{"fractional offering limit", func() error {
			_, err := handlers.CompareEntities(ctx, mustStruct(t, map[string]any{"ids": []any{"a", "b"}, "offeringLimit": 2.5}))
			return err
		}},
		{"negative offering limit", func() error {
			_, err := handlers.CompareEntities(ctx, mustStruct(t, map[string]any{"ids": []any{"a", "b"}, "offeringLimit": -1}))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

// TestHandleError tests error handling and status code mapping
func TestHandleError(t *testing.T) {
	handlers := &GRPCHandlers{logger: zap.NewNop()}

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.Canceled, status.Code(err))
		assert.Contains(t, err.Error(), "request canceled")
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
		assert.Contains(t, err.Error(), "request timed out")
	})

	tests := []struct {
		name     string
		err      error
		code     codes.Code
		contains string
	}{
		{"not found", fmt.Errorf("%w: x", service.ErrEntityNotFound), codes.NotFound, "entity not found"},
		{"invalid comparison", fmt.Errorf("%w: need at least 2", service.ErrInvalidComparison), codes.InvalidArgument, "need at least 2"},
		{"malformed request", fmt.Errorf("%w: reviews[0]", catalog.ErrMalformedInput), codes.InvalidArgument, "reviews[0]"},
		{"corrupt stored record", fmt.Errorf("%w: %w", service.ErrCorruptRecord, catalog.ErrMalformedInput), codes.Internal, "stored record is invalid"},
		{"storage failure", fmt.Errorf("%w: locked", service.ErrStorageFailure), codes.Internal, "database error"},
		{"unknown error", errors.New("database connection lost"), codes.Internal, "test_operation failed: database connection lost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handlers.handleError(context.Background(), "test_operation", tt.err)

			assert.Equal(t, tt.code, status.Code(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestGetScorecard(t *testing.T) {
	t.Run("cache miss fetches and writes back", func(t *testing.T) {
		mockSvc := &mocks.MockEvaluationService{
			GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
				return sampleScorecard(id), nil
			},
		}
		mockCache := &mocks.MockCacher{}
		handlers := NewGRPCHandlers(mockSvc, mockCache, zap.NewNop(), time.Minute)

		resp, err := handlers.GetScorecard(context.Background(), mustStruct(t, map[string]any{"id": "lanserhof"}))
		require.NoError(t, err)

		m := resp.AsMap()
		assert.Equal(t, "lanserhof", m["entityId"])
		assert.Equal(t, 92.0, m["overall"])
		assert.Nil(t, m["peerAverage"])
		assert.Equal(t, "Exceptional", m["band"].(map[string]any)["label"])

		assert.Eventually(t, func() bool {
			keys := mockCache.SetKeys()
			return len(keys) == 1 && keys[0] == "grpc:scorecard:lanserhof"
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("cache hit skips the service on the request path", func(t *testing.T) {
		snapshot, err := json.Marshal(sampleScorecard("cached"))
		require.NoError(t, err)

		mockSvc := &mocks.MockEvaluationService{
			GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
				return sampleScorecard("fresh"), nil
			},
		}
		mockCache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				return json.Unmarshal(snapshot, dest)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, mockCache, zap.NewNop(), time.Minute)

		resp, err := handlers.GetScorecard(context.Background(), mustStruct(t, map[string]any{"id": "lanserhof"}))
		require.NoError(t, err)
		assert.Equal(t, "cached", resp.AsMap()["entityId"])
	})

	t.Run("cache errors are treated as misses", func(t *testing.T) {
		mockSvc := &mocks.MockEvaluationService{
			GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
				return sampleScorecard(id), nil
			},
		}
		mockCache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				return errors.New("connection refused")
			},
			SetFunc: func(ctx context.Context, key string, value any, expiration time.Duration) error {
				return errors.New("connection refused")
			},
		}
		handlers := NewGRPCHandlers(mockSvc, mockCache, zap.NewNop(), time.Minute)

		resp, err := handlers.GetScorecard(context.Background(), mustStruct(t, map[string]any{"id": "x"}))
		require.NoError(t, err)
		assert.Equal(t, "x", resp.AsMap()["entityId"])
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := &mocks.MockEvaluationService{
			GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
				return scoring.Scorecard{}, fmt.Errorf("%w: %s", service.ErrEntityNotFound, id)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.GetScorecard(context.Background(), mustStruct(t, map[string]any{"id": "x"}))
		assert.Nil(t, resp)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}

func TestGetOutcomeSummary(t *testing.T) {
	mockSvc := &mocks.MockEvaluationService{
		GetOutcomeSummaryFunc: func(ctx context.Context, id string) (service.EntityOutcomes, error) {
			return service.EntityOutcomes{EntityID: id, Name: "Ananda", Outcomes: outcome.Aggregate(nil)}, nil
		},
	}
	handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

	resp, err := handlers.GetOutcomeSummary(context.Background(), mustStruct(t, map[string]any{"id": "ananda"}))
	require.NoError(t, err)

	outcomes := resp.AsMap()["outcomes"].(map[string]any)
	assert.Equal(t, 0.0, outcomes["totalReviews"])
	assert.Nil(t, outcomes["averageRating"])
	assert.Nil(t, outcomes["ratings"])
}

func TestCompareEntities(t *testing.T) {
	t.Run("passes ids and options through", func(t *testing.T) {
		var gotIDs []string
		var gotOpts service.CompareOptions
		mockSvc := &mocks.MockEvaluationService{
			CompareFunc: func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
				gotIDs, gotOpts = ids, opts
				return comparison.Comparison{
					Columns: []comparison.Column{{EntityID: "b"}, {EntityID: "a"}},
					Summary: []comparison.Row{comparison.BuildRow("Overall score", []comparison.Value{
						comparison.Number(80), comparison.Number(90),
					}, comparison.HighlightHighest)},
				}, nil
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.CompareEntities(context.Background(), mustStruct(t, map[string]any{
			"ids":              []any{"b", "a"},
			"offeringLimit":    3,
			"showAllOfferings": true,
		}))
		require.NoError(t, err)

		assert.Equal(t, []string{"b", "a"}, gotIDs)
		assert.Equal(t, service.CompareOptions{OfferingLimit: 3, ShowAllOfferings: true}, gotOpts)

		summary := resp.AsMap()["summary"].([]any)
		row := summary[0].(map[string]any)
		assert.Equal(t, []any{1.0}, row["highlighted"])
	})

	t.Run("invalid comparison", func(t *testing.T) {
		mockSvc := &mocks.MockEvaluationService{
			CompareFunc: func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
				return comparison.Comparison{}, fmt.Errorf("%w: at most 4 entities, got 5", service.ErrInvalidComparison)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, &mocks.MockCacher{}, zap.NewNop(), time.Minute)

		_, err := handlers.CompareEntities(context.Background(), mustStruct(t, map[string]any{
			"ids": []any{"a", "b", "c", "d", "e"},
		}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "at most 4")
	})
}

func TestServiceDescOverBufconn(t *testing.T) {
	mockSvc := &mocks.MockEvaluationService{
		GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
			if id != "lanserhof" {
				return scoring.Scorecard{}, service.ErrEntityNotFound
			}
			return sampleScorecard(id), nil
		},
	}
	handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

	lis := bufconn.Listen(1 << 20)
	srv, err := server.New(server.WithListener(lis))
	require.NoError(t, err)
	srv.RegisterDesc(&ServiceDesc, handlers)
	srv.Start()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.GetScorecard(ctx, mustStruct(t, map[string]any{"id": "lanserhof"}))
	require.NoError(t, err)
	assert.Equal(t, "Medical Wellness", resp.AsMap()["tierLabel"])

	_, err = client.GetScorecard(ctx, mustStruct(t, map[string]any{"id": "nowhere"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CompareEntities(ctx, mustStruct(t, map[string]any{"ids": []any{"a", "b"}}))
	assert.Equal(t, codes.Internal, status.Code(err), "unimplemented mock surfaces as an unexpected error")
}
