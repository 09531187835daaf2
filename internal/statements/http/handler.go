// Package http exposes the derived statement views over REST: current
// statements, the monthly period sequence with CSV export, explicit rebuilds,
// and the consolidated portfolio view.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/platform/httpx"
	"github.com/finboard/finboard/internal/statements"
)

const maxConsolidatedCompanies = 50

// Handler wires statement endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *statements.Service
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the statements handler. Rebuilds are rate limited per
// client address; each one recomputes the company's full period sequence.
func NewHandler(logger *slog.Logger, service *statements.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rateLimit: httprate.LimitByIP(10, time.Minute),
	}
}

// MountRoutes attaches statement routes under the company scope plus the
// portfolio-level consolidated view.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/statements", func(r chi.Router) {
		r.Get("/", h.current)
		r.Get("/periods", h.periods)
		r.Get("/periods/export.csv", h.exportPeriodsCSV)
		r.With(h.rateLimit).Post("/rebuild", h.rebuild)
	})
	r.Get("/portfolio/consolidated", h.consolidated)
	r.Get("/portfolio/consolidated/export.csv", h.exportConsolidatedCSV)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	result, err := h.service.Statements(r.Context(), companyID)
	if err != nil {
		h.logger.Error("load statements", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) periods(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	periods, err := h.service.Periods(r.Context(), companyID)
	if err != nil {
		h.logger.Error("load period statements", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if periods == nil {
		periods = []finance.PeriodStatement{}
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"company_id": companyID,
		"periods":    periods,
	})
}

func (h *Handler) exportPeriodsCSV(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	periods, err := h.service.Periods(r.Context(), companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "statements-"+companyID+".csv"))
	if err := writePeriodsCSV(w, companyID, periods); err != nil {
		// Headers are gone by now; all we can do is log.
		h.logger.Error("stream periods csv", slog.String("company_id", companyID), slog.Any("error", err))
	}
}

func (h *Handler) rebuild(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if err := h.service.Rebuild(r.Context(), companyID); err != nil {
		h.logger.Error("rebuild statements", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"company_id": companyID,
		"status":     "rebuilt",
	})
}

func (h *Handler) consolidated(w http.ResponseWriter, r *http.Request) {
	companyIDs, err := parseCompanyList(r.URL.Query().Get("companies"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}

	key := "consolidated:" + strings.Join(companyIDs, ",")
	value, err, _ := singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Consolidated(ctx, companyIDs)
	})
	if err != nil {
		if errors.Is(err, statements.ErrCompanyNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("consolidate portfolio", slog.Any("company_ids", companyIDs), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result, ok := value.(finance.ConsolidatedFinancials)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) exportConsolidatedCSV(w http.ResponseWriter, r *http.Request) {
	companyIDs, err := parseCompanyList(r.URL.Query().Get("companies"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	result, err := h.service.Consolidated(r.Context(), companyIDs)
	if err != nil {
		if errors.Is(err, statements.ErrCompanyNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="consolidated.csv"`)
	if err := writeConsolidatedCSV(w, result); err != nil {
		h.logger.Error("stream consolidated csv", slog.Any("company_ids", companyIDs), slog.Any("error", err))
	}
}

// parseCompanyList splits and deduplicates the companies query parameter.
// Order is preserved so member statements come back in request order.
func parseCompanyList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("companies query parameter is required")
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("companies query parameter is required")
	}
	if len(ids) > maxConsolidatedCompanies {
		return nil, fmt.Errorf("at most %d companies per consolidation request", maxConsolidatedCompanies)
	}
	return ids, nil
}
