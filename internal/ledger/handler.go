package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/finboard/finboard/internal/platform/httpx"
)

// Handler wires ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the ledger handler. Bulk imports are rate limited per
// client address since each one triggers a statements refresh.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validate:  validator.New(),
		rateLimit: httprate.LimitByIP(10, time.Minute),
	}
}

// MountRoutes attaches ledger routes under the company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/transactions", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.record)
		r.With(h.rateLimit).Post("/import", h.bulkImport)
	})
}

type transactionDTO struct {
	ID          string   `json:"id"`
	Date        *string  `json:"date" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=revenue expense asset liability equity"`
	Category    string   `json:"category" validate:"required"`
	Amount      *float64 `json:"amount" validate:"required"`
	Description string   `json:"description"`

	AffectsPL       bool `json:"affects_pl"`
	AffectsCashFlow bool `json:"affects_cash_flow"`
	AffectsBalance  bool `json:"affects_balance"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (dto transactionDTO) input() (RecordInput, error) {
	input := RecordInput{
		ID:              dto.ID,
		Type:            dto.Type,
		Category:        dto.Category,
		Amount:          dto.Amount,
		Description:     dto.Description,
		AffectsPL:       dto.AffectsPL,
		AffectsCashFlow: dto.AffectsCashFlow,
		AffectsBalance:  dto.AffectsBalance,
	}
	if dto.Date != nil {
		parsed, err := time.Parse("2006-01-02", *dto.Date)
		if err != nil {
			return RecordInput{}, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation)
		}
		input.Date = &parsed
	}
	return input, nil
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	var dto transactionDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := dto.input()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	record, err := h.service.Record(r.Context(), companyID, input)
	if err != nil {
		h.logger.Warn("record transaction", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*record))
}

func (h *Handler) bulkImport(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	var dtos []transactionDTO
	if err := httpx.DecodeJSON(r, &dtos); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	inputs := make([]RecordInput, 0, len(dtos))
	for i, dto := range dtos {
		if err := h.validate.Struct(dto); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
				fmt.Sprintf("entry %d: %s", i, err))
			return
		}
		input, err := dto.input()
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		inputs = append(inputs, input)
	}

	inserted, err := h.service.Import(r.Context(), companyID, inputs)
	if err != nil {
		h.logger.Warn("import transactions", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int{"inserted": inserted})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	records, err := h.service.List(r.Context(), companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	responses := make([]transactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toResponse(record))
	}
	httpx.JSON(w, http.StatusOK, responses)
}

func toResponse(record TransactionRecord) transactionResponse {
	return transactionResponse{
		ID:        record.ID,
		CompanyID: record.CompanyID,
		Date:      record.Date.Format("2006-01-02"),
		Type:      string(record.Type),
		Category:  record.Category,
		Amount:    record.Amount,
		CreatedAt: record.CreatedAt,
	}
}
