package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/service"
)

const defaultRequestTimeout = 10 * time.Second

type Handler struct {
	svc     EvaluationService
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(svc EvaluationService, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("nil EvaluationService provided to NewHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("http-handler"), timeout: defaultRequestTimeout}
}

type compareQuery struct {
	IDs           string `form:"ids" binding:"required"`
	OfferingLimit int    `form:"offeringLimit" binding:"gte=0"`
	ShowAll       bool   `form:"showAll"`
}

type aggregateBody struct {
	Reviews []catalog.ReviewRecord `json:"reviews"`
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, code, public := classify(err)
	_ = c.Error(err)
	if !public {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		RespondError(c, status, code, errors.New(nethttp.StatusText(status)))
		return
	}
	RespondError(c, status, code, err)
}

func (h *Handler) Health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *Handler) ListEntities(c *gin.Context) {
	var tier catalog.Tier
	if raw := c.Query("tier"); raw != "" {
		t, err := catalog.ParseTier(raw)
		if err != nil {
			h.fail(c, "ListEntities", err)
			return
		}
		tier = t
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	out, err := h.svc.ListEntities(ctx, tier)
	if err != nil {
		h.fail(c, "ListEntities", err)
		return
	}
	RespondOK(c, gin.H{"entities": out})
}

func (h *Handler) GetScorecard(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	sc, err := h.svc.GetScorecard(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "GetScorecard", err)
		return
	}
	RespondOK(c, sc)
}

func (h *Handler) GetOutcomeSummary(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.svc.GetOutcomeSummary(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "GetOutcomeSummary", err)
		return
	}
	RespondOK(c, res)
}

func (h *Handler) Compare(c *gin.Context) {
	var q compareQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, nethttp.StatusBadRequest, "bad_request", err)
		return
	}

	var ids []string
	for _, id := range strings.Split(q.IDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	cmp, err := h.svc.Compare(ctx, ids, service.CompareOptions{
		OfferingLimit:    q.OfferingLimit,
		ShowAllOfferings: q.ShowAll,
	})
	if err != nil {
		h.fail(c, "Compare", err)
		return
	}
	RespondOK(c, cmp)
}

func (h *Handler) AggregateReviews(c *gin.Context) {
	var body aggregateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, nethttp.StatusBadRequest, "bad_request", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	sum, err := h.svc.AggregateReviews(ctx, body.Reviews)
	if err != nil {
		h.fail(c, "AggregateReviews", err)
		return
	}
	RespondOK(c, sum)
}

func (h *Handler) BuildRow(c *gin.Context) {
	var req service.RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, nethttp.StatusBadRequest, "bad_request", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	row, err := h.svc.BuildRow(ctx, req)
	if err != nil {
		h.fail(c, "BuildRow", err)
		return
	}
	RespondOK(c, row)
}
