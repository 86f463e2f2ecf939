//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/dimension"
	"github.com/godilite/wellness-eval/internal/grpc"
	httpapi "github.com/godilite/wellness-eval/internal/http"
	"github.com/godilite/wellness-eval/internal/repository"
	"github.com/godilite/wellness-eval/internal/service"
	dbbuilder "github.com/godilite/wellness-eval/pkg/database"
	"github.com/godilite/wellness-eval/tests/e2e/mocks"
)

type harness struct {
	handler *grpc.GRPCHandlers
	cache   *mocks.TrackingCache
	router  *gin.Engine
}

func seedCatalog() []catalog.Entity {
	return []catalog.Entity{
		{
			ID:           "lanserhof",
			Name:         "Lanserhof Tegernsee",
			Tier:         catalog.TierOne,
			OverallScore: catalog.Float(92),
			Dimensions: []catalog.DimensionScore{
				{Dimension: "clinicalRigor", Score: 95},
				{Dimension: "outcomeTracking", Score: 88},
			},
			Reviews: []catalog.ReviewRecord{
				{OverallRating: 5, ServiceRating: catalog.Float(5), Outcome: catalog.Outcome(catalog.OutcomeFully),
					Biomarkers: []catalog.BiomarkerReading{{Marker: "cortisol", Before: 19, After: 14}}},
				{OverallRating: 4, Outcome: catalog.Outcome(catalog.OutcomeNotAchieved)},
			},
			Offerings: []catalog.AttributeOffering{
				{Key: "iv", Label: "IV Therapy", Signature: true},
				{Key: "cryo", Label: "Cryotherapy"},
			},
			Attributes: []catalog.Attribute{
				{Key: "minStay", Label: "Minimum stay (nights)", Value: 7.0, Highlight: "lowest"},
			},
		},
		{
			ID:           "buchinger",
			Name:         "Buchinger Wilhelmi",
			Tier:         catalog.TierOne,
			OverallScore: catalog.Float(84),
			Offerings: []catalog.AttributeOffering{
				{Key: "fasting", Label: "Therapeutic fasting", Signature: true},
			},
			Attributes: []catalog.Attribute{
				{Key: "minStay", Value: 10.0, Highlight: "lowest"},
			},
		},
		{
			ID:   "ananda",
			Name: "Ananda in the Himalayas",
			Tier: catalog.TierThree,
			Dimensions: []catalog.DimensionScore{
				{Dimension: "hospitality", Score: 94},
			},
		},
	}
}

func setup(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMaxOpenConns(1),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewCatalogRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	table, err := dimension.Default()
	require.NoError(t, err)

	logger := zap.NewNop()
	svc := service.NewEvaluationService(repo, table, logger, service.WithOfferingLimit(2))
	for _, e := range seedCatalog() {
		require.NoError(t, svc.ImportEntity(ctx, e))
	}

	gin.SetMode(gin.TestMode)
	cache := mocks.NewTrackingCache()
	return &harness{
		handler: grpc.NewGRPCHandlers(svc, cache, logger, 5*time.Minute),
		cache:   cache,
		router: httpapi.NewRouter(httpapi.RouterConfig{
			Handler: httpapi.NewHandler(svc, logger),
			Logger:  logger,
		}),
	}
}

func req(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestE2E_GetScorecard(t *testing.T) {
	h := setup(t)

	resp, err := h.handler.GetScorecard(context.Background(), req(t, map[string]any{"id": "lanserhof"}))
	require.NoError(t, err)

	sc := resp.AsMap()
	assert.Equal(t, "Medical Wellness", sc["tierLabel"])
	assert.Equal(t, 92.0, sc["overall"])
	assert.Equal(t, 88.0, sc["peerAverage"])
	assert.Equal(t, "Above average", sc["peerComparison"])

	band := sc["band"].(map[string]any)
	assert.Equal(t, "Exceptional", band["label"])

	dims := sc["dimensions"].([]any)
	require.NotEmpty(t, dims)
	first := dims[0].(map[string]any)
	assert.Equal(t, "clinicalRigor", first["key"])
	assert.Equal(t, 95.0, first["score"])
}

func TestE2E_GetOutcomeSummary(t *testing.T) {
	h := setup(t)

	resp, err := h.handler.GetOutcomeSummary(context.Background(), req(t, map[string]any{"id": "lanserhof"}))
	require.NoError(t, err)

	out := resp.AsMap()["outcomes"].(map[string]any)
	assert.Equal(t, 2.0, out["totalReviews"])
	assert.Equal(t, 4.5, out["averageRating"])

	stats := out["outcomeStats"].(map[string]any)
	assert.Equal(t, 1.0, stats["fullyAchieved"])
	assert.Equal(t, 1.0, stats["notAchieved"])

	serviceRating := out["ratings"].(map[string]any)["service"].(map[string]any)
	assert.Equal(t, 1.0, serviceRating["sampleCount"], "absent sub-ratings stay out of the denominator")

	t.Run("entity without reviews", func(t *testing.T) {
		resp, err := h.handler.GetOutcomeSummary(context.Background(), req(t, map[string]any{"id": "ananda"}))
		require.NoError(t, err)
		out := resp.AsMap()["outcomes"].(map[string]any)
		assert.Equal(t, 0.0, out["totalReviews"])
		assert.Nil(t, out["averageRating"])
	})
}

func TestE2E_CompareEntities(t *testing.T) {
	h := setup(t)

	resp, err := h.handler.CompareEntities(context.Background(), req(t, map[string]any{
		"ids": []any{"lanserhof", "buchinger"},
	}))
	require.NoError(t, err)
	cmp := resp.AsMap()

	columns := cmp["columns"].([]any)
	require.Len(t, columns, 4, "table is padded to the maximum width")
	assert.Equal(t, true, columns[3].(map[string]any)["padding"])

	offerings := cmp["offerings"].(map[string]any)
	assert.Equal(t, 3.0, offerings["total"])
	assert.Equal(t, 1.0, offerings["hidden"])

	var minStay map[string]any
	for _, r := range cmp["attributes"].([]any) {
		row := r.(map[string]any)
		if row["label"] == "Minimum stay (nights)" {
			minStay = row
		}
	}
	require.NotNil(t, minStay)
	assert.Equal(t, []any{0.0}, minStay["highlighted"])

	t.Run("show all offerings", func(t *testing.T) {
		resp, err := h.handler.CompareEntities(context.Background(), req(t, map[string]any{
			"ids":              []any{"lanserhof", "buchinger"},
			"showAllOfferings": true,
		}))
		require.NoError(t, err)
		offerings := resp.AsMap()["offerings"].(map[string]any)
		assert.Equal(t, 0.0, offerings["hidden"])
		assert.Len(t, offerings["rows"], 3)
	})
}

func TestE2E_CachingBehavior(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	in := req(t, map[string]any{"id": "lanserhof"})

	resp1, err := h.handler.GetScorecard(ctx, in)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.cache.Has("grpc:scorecard:lanserhof") },
		time.Second, 10*time.Millisecond, "miss should write the snapshot back")

	resp2, err := h.handler.GetScorecard(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, resp1.AsMap(), resp2.AsMap())

	gets, _, hits := h.cache.Stats()
	assert.GreaterOrEqual(t, gets, 2)
	assert.GreaterOrEqual(t, hits, 1)
}

func TestE2E_ErrorScenarios(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"unknown entity", func() error {
			_, err := h.handler.GetScorecard(ctx, req(t, map[string]any{"id": "nowhere"}))
			return err
		}, codes.NotFound},
		{"missing id", func() error {
			_, err := h.handler.GetOutcomeSummary(ctx, req(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"single entity comparison", func() error {
			_, err := h.handler.CompareEntities(ctx, req(t, map[string]any{"ids": []any{"lanserhof", "lanserhof"}}))
			return err
		}, codes.InvalidArgument},
		{"too many entities", func() error {
			_, err := h.handler.CompareEntities(ctx, req(t, map[string]any{"ids": []any{"a", "b", "c", "d", "e"}}))
			return err
		}, codes.InvalidArgument},
		{"comparison with unknown member", func() error {
			_, err := h.handler.CompareEntities(ctx, req(t, map[string]any{"ids": []any{"lanserhof", "nowhere"}}))
			return err
		}, codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestE2E_HTTP(t *testing.T) {
	h := setup(t)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, target, nil))
		return rec
	}

	rec := get("/api/v1/entities?tier=TIER_1")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var list []service.EntitySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = get("/api/v1/compare?ids=lanserhof,%20ananda&showAll=true")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ananda in the Himalayas")

	rec = get("/api/v1/entities/nowhere/outcomes")
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	body := `{"reviews":[{"overallRating":5,"outcome":"FULLY"},{"overallRating":3,"outcome":"MOSTLY"}]}`
	rec = httptest.NewRecorder()
	r := httptest.NewRequest(nethttp.MethodPost, "/api/v1/outcomes/aggregate", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h.router.ServeHTTP(rec, r)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code, "unknown outcome labels are rejected")
}

func TestE2E_PerformanceBaseline(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	const numCalls = 20
	startTime := time.Now()
	for i := 0; i < numCalls; i++ {
		_, err := h.handler.GetScorecard(ctx, req(t, map[string]any{"id": "lanserhof"}))
		require.NoError(t, err)
		_, err = h.handler.GetOutcomeSummary(ctx, req(t, map[string]any{"id": "lanserhof"}))
		require.NoError(t, err)
		_, err = h.handler.CompareEntities(ctx, req(t, map[string]any{"ids": []any{"lanserhof", "buchinger", "ananda"}}))
		require.NoError(t, err)
	}
	duration := time.Since(startTime)
	t.Logf("Completed %d calls across 3 methods in %v", numCalls*3, duration)

	require.Less(t, duration, 5*time.Second)
}
