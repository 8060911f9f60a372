// Package api serves the pool view over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/observability"
	"whirlpool-range-lab/internal/poolview"
	"whirlpool-range-lab/internal/rangestate"
	"whirlpool-range-lab/internal/tickmath"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// View is the pool view served by the handlers.
type View interface {
	Snapshot(ctx context.Context) (*domain.PoolSnapshot, error)
	Histogram() ([]domain.HistogramBin, error)
	Status() poolview.Status
	Range() (poolview.RangeView, error)
	Commit(r rangestate.PriceRange) (domain.RangeState, error)
	Drag(r rangestate.PriceRange) error
	Step(bound poolview.Bound, steps int) (domain.RangeState, error)
	SetBoundPrice(bound poolview.Bound, price decimal.Decimal) (domain.RangeState, error)
	Reset() (domain.RangeState, error)
	FullRange() (domain.RangeState, error)
}

// SlotReader reports the ledger's current slot for health checks.
type SlotReader interface {
	GetSlot(ctx context.Context) (int64, error)
}

// Handler holds the view and optional health probe.
type Handler struct {
	view   View
	slots  SlotReader
	logger *zap.Logger
}

// NewHandler registers the tracing middleware and all routes on e. slots
// may be nil.
func NewHandler(e *echo.Echo, view View, slots SlotReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{view: view, slots: slots, logger: logger}

	e.Use(TraceMiddleware(TracerName))
	e.GET("/pool", h.GetPool)
	e.GET("/range", h.GetRange)
	e.GET("/histogram", h.GetHistogram)
	e.POST("/range/commit", h.CommitRange)
	e.POST("/range/drag", h.DragRange)
	e.POST("/range/step", h.StepRange)
	e.POST("/range/set", h.SetBound)
	e.POST("/range/reset", h.ResetRange)
	e.POST("/range/full", h.FullRange)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))
	return h
}

// PoolResponse is the body of GET /pool.
type PoolResponse struct {
	Snapshot *domain.PoolSnapshot `json:"snapshot"`
	Error    string               `json:"error,omitempty"`
}

// GetPool returns the latest snapshot and the last refresh error.
func (h *Handler) GetPool(c echo.Context) error {
	snap, err := h.view.Snapshot(c.Request().Context())
	status := h.view.Status()
	if err != nil {
		msg := err.Error()
		if status.SnapshotError != "" {
			msg = status.SnapshotError
		}
		return c.JSON(statusCode(err), ResponseError{Message: msg})
	}
	return c.JSON(http.StatusOK, PoolResponse{Snapshot: snap, Error: status.SnapshotError})
}

// GetRange returns the range state with derived prices.
func (h *Handler) GetRange(c echo.Context) error {
	view, err := h.view.Range()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// HistogramResponse is the body of GET /histogram.
type HistogramResponse struct {
	Bins  []domain.HistogramBin `json:"bins"`
	Error string                `json:"error,omitempty"`
}

// GetHistogram returns the current bins and the last fetch error.
func (h *Handler) GetHistogram(c echo.Context) error {
	bins, err := h.view.Histogram()
	status := h.view.Status()
	if err != nil {
		msg := err.Error()
		if status.HistogramError != "" {
			msg = status.HistogramError
		}
		return c.JSON(statusCode(err), ResponseError{Message: msg})
	}
	return c.JSON(http.StatusOK, HistogramResponse{Bins: bins, Error: status.HistogramError})
}

// PriceRangeRequest is the body of range commit and drag requests.
type PriceRangeRequest struct {
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
}

func (r PriceRangeRequest) parse() (rangestate.PriceRange, error) {
	lo, err := decimal.NewFromString(r.MinPrice)
	if err != nil {
		return rangestate.PriceRange{}, fmt.Errorf("invalid minPrice %q", r.MinPrice)
	}
	hi, err := decimal.NewFromString(r.MaxPrice)
	if err != nil {
		return rangestate.PriceRange{}, fmt.Errorf("invalid maxPrice %q", r.MaxPrice)
	}
	return rangestate.PriceRange{Min: lo, Max: hi}, nil
}

// CommitRange writes a user range given as prices.
func (h *Handler) CommitRange(c echo.Context) error {
	var req PriceRangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	r, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	st, err := h.view.Commit(r)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// DragRange records an in-progress range; it is committed after the
// debounce period.
func (h *Handler) DragRange(c echo.Context) error {
	var req PriceRangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	r, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.view.Drag(r); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// StepRequest is the body of POST /range/step.
type StepRequest struct {
	Bound     poolview.Bound `json:"bound"`
	Direction int            `json:"direction"` // +1 or -1
}

// StepRange moves one bound by one tick spacing.
func (h *Handler) StepRange(c echo.Context) error {
	var req StepRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if req.Direction != 1 && req.Direction != -1 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "direction must be 1 or -1"})
	}
	st, err := h.view.Step(req.Bound, req.Direction)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// SetBoundRequest is the body of POST /range/set.
type SetBoundRequest struct {
	Bound poolview.Bound `json:"bound"`
	Price string         `json:"price"`
}

// SetBound moves one bound to a typed-in price.
func (h *Handler) SetBound(c echo.Context) error {
	var req SetBoundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: fmt.Sprintf("invalid price %q", req.Price)})
	}
	st, err := h.view.SetBoundPrice(req.Bound, price)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ResetRange restores the default user range.
func (h *Handler) ResetRange(c echo.Context) error {
	st, err := h.view.Reset()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// FullRange selects the full initializable range.
func (h *Handler) FullRange(c echo.Context) error {
	st, err := h.view.FullRange()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string          `json:"status"`
	Slot   int64           `json:"slot,omitempty"`
	View   poolview.Status `json:"view"`
}

// Health reports liveness and, when configured, ledger reachability.
func (h *Handler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", View: h.view.Status()}
	if h.slots != nil {
		slot, err := h.slots.GetSlot(c.Request().Context())
		if err != nil {
			h.logger.Warn("health check: get slot failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: err.Error()})
		}
		resp.Slot = slot
	}
	return c.JSON(http.StatusOK, resp)
}

// fail records err on the request span and writes it with its status.
func (h *Handler) fail(c echo.Context, err error) error {
	recordSpanError(c, err)
	return c.JSON(statusCode(err), ResponseError{Message: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, rangestate.ErrInvertedRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tickmath.ErrInvalidPrice),
		errors.Is(err, tickmath.ErrTickOutOfBounds),
		errors.Is(err, tickmath.ErrSqrtPriceOutOfBounds),
		errors.Is(err, poolview.ErrUnknownBound):
		return http.StatusBadRequest
	case errors.Is(err, rangestate.ErrNotInitialized),
		errors.Is(err, poolview.ErrNoSnapshot),
		errors.Is(err, poolview.ErrNoHistogram):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
