// Package dashhttp exposes the sales dashboard over HTTP.
package dashhttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brightline-bi/brightline/internal/dashboard"
	"github.com/brightline-bi/brightline/internal/dashboard/export"
	"github.com/brightline-bi/brightline/internal/platform/httpx"
	"github.com/brightline-bi/brightline/internal/salesagg"
)

const requestTimeout = 5 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	GetOverview(ctx context.Context, filter dashboard.Filter) (salesagg.Overview, error)
	GetDealerOverview(ctx context.Context, dealerID int64, filter dashboard.Filter) (salesagg.EntityOverview, error)
	GetRepOverview(ctx context.Context, repID int64, filter dashboard.Filter) (salesagg.EntityOverview, error)
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger    *slog.Logger
	service   DashboardService
	validator *validator.Validate
	csvPool   sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

type filterQuery struct {
	Start      string `validate:"omitempty,datetime=2006-01-02"`
	End        string `validate:"omitempty,datetime=2006-01-02"`
	DealerID   *int64 `validate:"omitempty,gt=0"`
	AgentID    *int64 `validate:"omitempty,gt=0"`
	WindowDays int    `validate:"omitempty,gte=1,lte=3650"`
}

func (h *Handler) parseFilter(r *http.Request) (dashboard.Filter, error) {
	q := r.URL.Query()
	fq := filterQuery{
		Start: q.Get("start"),
		End:   q.Get("end"),
	}
	var err error
	if fq.DealerID, err = parseOptionalID(q.Get("dealer_id"), "dealer_id"); err != nil {
		return dashboard.Filter{}, err
	}
	if fq.AgentID, err = parseOptionalID(q.Get("agent_id"), "agent_id"); err != nil {
		return dashboard.Filter{}, err
	}
	if raw := q.Get("window_days"); raw != "" {
		fq.WindowDays, err = strconv.Atoi(raw)
		if err != nil {
			return dashboard.Filter{}, fmt.Errorf("%w: window_days must be an integer", httpx.ErrValidation)
		}
	}
	if err := h.validator.Struct(fq); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return dashboard.Filter{}, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, fieldName(fieldErrs[0].Field()))
		}
		return dashboard.Filter{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if fq.Start != "" && fq.End != "" && fq.Start >= fq.End {
		return dashboard.Filter{}, fmt.Errorf("%w: start must be before end", httpx.ErrValidation)
	}
	return dashboard.Filter{
		Start:      fq.Start,
		End:        fq.End,
		DealerID:   fq.DealerID,
		AgentID:    fq.AgentID,
		WindowDays: fq.WindowDays,
	}, nil
}

func parseOptionalID(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", httpx.ErrValidation, name)
	}
	return &id, nil
}

func fieldName(field string) string {
	switch field {
	case "Start":
		return "start"
	case "End":
		return "end"
	case "DealerID":
		return "dealer_id"
	case "AgentID":
		return "agent_id"
	case "WindowDays":
		return "window_days"
	}
	return field
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(urlParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", httpx.ErrValidation, name)
	}
	return id, nil
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.GetOverview(ctx, filter)
	if err != nil {
		h.logError("load overview", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleDealer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.service.GetDealerOverview(ctx, id, filter)
	if err != nil {
		h.logError("load dealer view", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleRep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.service.GetRepOverview(ctx, id, filter)
	if err != nil {
		h.logError("load rep view", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleMonthlyCSV(w http.ResponseWriter, r *http.Request) {
	h.exportCSV(w, r, "monthly-revenue", func(buf *bytes.Buffer, overview salesagg.Overview) error {
		return export.WriteMonthlyCSV(buf, overview.Monthly)
	})
}

func (h *Handler) handleDealersCSV(w http.ResponseWriter, r *http.Request) {
	h.exportCSV(w, r, "dealer-leaderboard", func(buf *bytes.Buffer, overview salesagg.Overview) error {
		return export.WriteDealersCSV(buf, overview.Dealers)
	})
}

func (h *Handler) handleRepsCSV(w http.ResponseWriter, r *http.Request) {
	h.exportCSV(w, r, "rep-leaderboard", func(buf *bytes.Buffer, overview salesagg.Overview) error {
		return export.WriteRepsCSV(buf, overview.Reps)
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request, stem string, write func(*bytes.Buffer, salesagg.Overview) error) {
	filter, err := h.parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.GetOverview(ctx, filter)
	if err != nil {
		h.logError("load overview for export", err)
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf, overview); err != nil {
		h.logError("write csv", err)
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("%s-%s-%s.csv", stem, overview.Start, overview.End)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error("dashboard request failed", slog.String("op", op), slog.Any("error", err))
}
