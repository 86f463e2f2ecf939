package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/http/mocks"
	"github.com/godilite/wellness-eval/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, svc EvaluationService, origins ...string) *gin.Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewRouter(RouterConfig{
		Handler:      NewHandler(svc, logger),
		Logger:       logger,
		AllowOrigins: origins,
	})
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *nethttp.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestHealthAndRequestID(t *testing.T) {
	r := newTestRouter(t, &mocks.MockEvaluationService{})

	rec := do(r, nethttp.MethodGet, "/healthz", "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "trace-me", rec.Header().Get(RequestIDHeader))
}

func TestListEntities(t *testing.T) {
	var gotTier catalog.Tier
	svc := &mocks.MockEvaluationService{
		ListEntitiesFunc: func(ctx context.Context, tier catalog.Tier) ([]service.EntitySummary, error) {
			gotTier = tier
			return []service.EntitySummary{{ID: "lanserhof", Name: "Lanserhof", Tier: catalog.TierOne}}, nil
		},
	}
	r := newTestRouter(t, svc)

	t.Run("loose tier spelling", func(t *testing.T) {
		rec := do(r, nethttp.MethodGet, "/api/v1/entities?tier=tier-1", "")
		require.Equal(t, nethttp.StatusOK, rec.Code)
		assert.Equal(t, catalog.TierOne, gotTier)
		assert.Contains(t, rec.Body.String(), `"id":"lanserhof"`)
	})

	t.Run("no tier lists all", func(t *testing.T) {
		rec := do(r, nethttp.MethodGet, "/api/v1/entities", "")
		require.Equal(t, nethttp.StatusOK, rec.Code)
		assert.Equal(t, catalog.Tier(""), gotTier)
	})

	t.Run("unknown tier", func(t *testing.T) {
		rec := do(r, nethttp.MethodGet, "/api/v1/entities?tier=platinum", "")
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "malformed_input", decodeError(t, rec).Code)
	})
}

func TestGetScorecard(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, nethttp.StatusOK, ""},
		{"not found", fmt.Errorf("%w: x", service.ErrEntityNotFound), nethttp.StatusNotFound, "not_found"},
		{"storage", fmt.Errorf("%w: disk I/O error", service.ErrStorageFailure), nethttp.StatusInternalServerError, "storage_failure"},
		{"corrupt", fmt.Errorf("%w: %w", service.ErrCorruptRecord, catalog.ErrMalformedInput), nethttp.StatusInternalServerError, "corrupt_record"},
		{"timeout", context.DeadlineExceeded, nethttp.StatusGatewayTimeout, "timeout"},
		{"unexpected", errors.New("boom"), nethttp.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockEvaluationService{
				GetScorecardFunc: func(ctx context.Context, id string) (scoring.Scorecard, error) {
					if tt.err != nil {
						return scoring.Scorecard{}, tt.err
					}
					return scoring.Scorecard{EntityID: id, Tier: catalog.TierOne}, nil
				},
			}
			rec := do(newTestRouter(t, svc), nethttp.MethodGet, "/api/v1/entities/lanserhof/scorecard", "")

			assert.Equal(t, tt.status, rec.Code)
			if tt.err == nil {
				assert.Contains(t, rec.Body.String(), `"entityId":"lanserhof"`)
				return
			}
			apiErr := decodeError(t, rec)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.status >= 500 {
				assert.NotContains(t, apiErr.Message, "disk I/O", "internal details stay in the log")
			}
		})
	}
}

func TestGetOutcomeSummary(t *testing.T) {
	svc := &mocks.MockEvaluationService{
		GetOutcomeSummaryFunc: func(ctx context.Context, id string) (service.EntityOutcomes, error) {
			return service.EntityOutcomes{EntityID: id, Outcomes: outcome.Aggregate(nil)}, nil
		},
	}
	rec := do(newTestRouter(t, svc), nethttp.MethodGet, "/api/v1/entities/ananda/outcomes", "")

	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"entityId":"ananda","name":"","outcomes":{"totalReviews":0,"averageRating":null,"ratings":null,"outcomeStats":null}}`,
		rec.Body.String())
}

func TestCompare(t *testing.T) {
	t.Run("parses ids and options", func(t *testing.T) {
		var gotIDs []string
		var gotOpts service.CompareOptions
		svc := &mocks.MockEvaluationService{
			CompareFunc: func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
				gotIDs, gotOpts = ids, opts
				return comparison.Comparison{Columns: []comparison.Column{{EntityID: "a"}, {EntityID: "b"}}}, nil
			},
		}
		rec := do(newTestRouter(t, svc), nethttp.MethodGet, "/api/v1/compare?ids=a,%20b,,c&offeringLimit=2&showAll=true", "")

		require.Equal(t, nethttp.StatusOK, rec.Code)
		assert.Equal(t, []string{"a", "b", "c"}, gotIDs)
		assert.Equal(t, service.CompareOptions{OfferingLimit: 2, ShowAllOfferings: true}, gotOpts)
	})

	t.Run("missing ids", func(t *testing.T) {
		rec := do(newTestRouter(t, &mocks.MockEvaluationService{}), nethttp.MethodGet, "/api/v1/compare", "")
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec).Code)
	})

	t.Run("negative offering limit", func(t *testing.T) {
		rec := do(newTestRouter(t, &mocks.MockEvaluationService{}), nethttp.MethodGet, "/api/v1/compare?ids=a,b&offeringLimit=-1", "")
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	})

	t.Run("invalid comparison", func(t *testing.T) {
		svc := &mocks.MockEvaluationService{
			CompareFunc: func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
				return comparison.Comparison{}, fmt.Errorf("%w: need at least 2 distinct entities, got 1", service.ErrInvalidComparison)
			},
		}
		rec := do(newTestRouter(t, svc), nethttp.MethodGet, "/api/v1/compare?ids=a,a", "")

		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, "invalid_comparison", apiErr.Code)
		assert.Contains(t, apiErr.Message, "at least 2")
	})
}

func TestAggregateReviews(t *testing.T) {
	svc := &mocks.MockEvaluationService{
		AggregateReviewsFunc: func(ctx context.Context, records []catalog.ReviewRecord) (outcome.Summary, error) {
			if err := catalog.ValidateReviews(records); err != nil {
				return outcome.Summary{}, err
			}
			return outcome.Aggregate(records), nil
		},
	}
	r := newTestRouter(t, svc)

	t.Run("aggregates", func(t *testing.T) {
		rec := do(r, nethttp.MethodPost, "/api/v1/outcomes/aggregate",
			`{"reviews":[{"overallRating":5,"serviceRating":5},{"overallRating":4},{"overallRating":3,"serviceRating":3}]}`)

		require.Equal(t, nethttp.StatusOK, rec.Code)
		var sum outcome.Summary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
		assert.Equal(t, 4.0, *sum.AverageRating)
		assert.Equal(t, 4.0, sum.Ratings.Service.Value)
		assert.Equal(t, 2, sum.Ratings.Service.SampleCount)
	})

	t.Run("rejects unknown outcome label", func(t *testing.T) {
		rec := do(r, nethttp.MethodPost, "/api/v1/outcomes/aggregate", `{"reviews":[{"overallRating":4,"outcome":"MOSTLY"}]}`)
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "malformed_input", decodeError(t, rec).Code)
	})

	t.Run("rejects broken json", func(t *testing.T) {
		rec := do(r, nethttp.MethodPost, "/api/v1/outcomes/aggregate", `{"reviews":[`)
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec).Code)
	})
}

func TestBuildRow(t *testing.T) {
	var got service.RowRequest
	svc := &mocks.MockEvaluationService{
		BuildRowFunc: func(ctx context.Context, req service.RowRequest) (comparison.Row, error) {
			got = req
			mode, err := comparison.ParseHighlightMode(req.Highlight)
			if err != nil {
				return comparison.Row{}, err
			}
			return comparison.BuildRow(req.Label, req.Values, mode, comparison.WithPad(req.Pad)), nil
		},
	}
	r := newTestRouter(t, svc)

	rec := do(r, nethttp.MethodPost, "/api/v1/compare/row",
		`{"label":"Score","values":[90,"n/a",true,null,["Yoga","Reiki"],90],"highlight":"highest","pad":1}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	require.Len(t, got.Values, 6)
	assert.Equal(t, comparison.KindNumber, got.Values[0].Kind())
	assert.Equal(t, comparison.KindText, got.Values[1].Kind())
	assert.Equal(t, comparison.KindBool, got.Values[2].Kind())
	assert.Equal(t, comparison.KindEmpty, got.Values[3].Kind())
	assert.Equal(t, comparison.KindList, got.Values[4].Kind())

	var row comparison.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, []int{0, 5}, row.Highlighted)
	assert.Len(t, row.Cells, 7)
	assert.True(t, row.Cells[1].Placeholder, "text is not comparable in a highest row")
	assert.True(t, row.Cells[2].Placeholder)

	rec = do(r, nethttp.MethodPost, "/api/v1/compare/row",
		`{"label":"Medical","values":[true,"n/a"],"highlight":"none"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, comparison.PresentMark, row.Cells[0].Display)
	assert.Equal(t, "n/a", row.Cells[1].Display)

	rec = do(r, nethttp.MethodPost, "/api/v1/compare/row", `{"label":"Score","values":[],"highlight":"best"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = do(r, nethttp.MethodPost, "/api/v1/compare/row", `{"label":"Score","values":[{"nested":1}]}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, &mocks.MockEvaluationService{}, "http://localhost:5173")

	req := httptest.NewRequest(nethttp.MethodOptions, "/api/v1/compare", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", nethttp.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(nethttp.MethodOptions, "/api/v1/compare", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", nethttp.MethodGet)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
