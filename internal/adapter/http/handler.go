package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rate-history-service/internal/domain/model"
	"rate-history-service/internal/domain/ports"
	"rate-history-service/internal/service"
	"rate-history-service/pkg/logger"
	"rate-history-service/pkg/utils"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type Handler struct {
	service     ports.RateService
	controller  *service.QueryController
	log         *logger.Logger
	maxPastDays int
}

func NewHandler(rateService ports.RateService, controller *service.QueryController, maxPastDays int, log *logger.Logger) *Handler {
	return &Handler{
		service:     rateService,
		controller:  controller,
		log:         log,
		maxPastDays: maxPastDays,
	}
}

// GetTableHandler serves the 7-day trailing table. Missing parameters fall
// back to the default board (GBP against the seven default targets, ending
// today).
func (h *Handler) GetTableHandler(w http.ResponseWriter, r *http.Request) {
	base := model.DefaultBaseCurrency
	if raw := r.URL.Query().Get("base"); raw != "" {
		base = model.Currency(raw).Normalize()
	}

	targets := model.DefaultTargetCurrencies
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		targets = model.ParseCurrencyList(raw)
	}

	if len(targets) < model.MinTargetCurrencies || len(targets) > model.MaxTargetCurrencies {
		h.handleServiceError(w, service.ErrInvalidCurrencyCount)
		return
	}

	referenceDate := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		var err error
		referenceDate, err = utils.ParseDate(dateStr)
		if err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
			return
		}
	}

	if !utils.ValidateDate(referenceDate, h.maxPastDays) {
		h.handleServiceError(w, service.ErrDateOutOfRange)
		return
	}

	ctx := r.Context()
	table, err := h.service.BuildTable(ctx, base, targets, referenceDate)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, table)
}

func (h *Handler) GetCurrenciesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currencies, err := h.service.ListCurrencies(ctx)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendSuccessResponse(w, currencies)
}

type queryRequest struct {
	BaseCurrency     string   `json:"base_currency"`
	TargetCurrencies []string `json:"target_currencies"`
	ReferenceDate    string   `json:"reference_date,omitempty"`
}

// QueryHandler is the stateful session surface: PUT replaces the query state
// (superseding any in-flight run), GET reads the current rows/loading/error
// view.
func (h *Handler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.updateQuery(w, r)
	case http.MethodGet:
		h.sendSuccessResponse(w, h.controller.Result())
	default:
		h.sendErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) updateQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.TargetCurrencies) < model.MinTargetCurrencies || len(req.TargetCurrencies) > model.MaxTargetCurrencies {
		h.handleServiceError(w, service.ErrInvalidCurrencyCount)
		return
	}

	referenceDate := time.Now().UTC()
	if req.ReferenceDate != "" {
		var err error
		referenceDate, err = utils.ParseDate(req.ReferenceDate)
		if err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
			return
		}
	}

	if !utils.ValidateDate(referenceDate, h.maxPastDays) {
		h.handleServiceError(w, service.ErrDateOutOfRange)
		return
	}

	targets := make([]model.Currency, 0, len(req.TargetCurrencies))
	for _, raw := range req.TargetCurrencies {
		targets = append(targets, model.Currency(raw).Normalize())
	}

	// An empty base currency is declined by the controller itself, which
	// stays in its current state; the request is still accepted.
	h.controller.OnQueryChange(model.QueryState{
		BaseCurrency:     model.Currency(req.BaseCurrency).Normalize(),
		TargetCurrencies: targets,
		ReferenceDate:    referenceDate,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(Response{Success: true}); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, data interface{}) {
	response := Response{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidCurrency):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid currency"
	case errors.Is(err, service.ErrInvalidCurrencyCount):
		statusCode = http.StatusBadRequest
		errorMessage = err.Error()
	case errors.Is(err, service.ErrDateOutOfRange):
		statusCode = http.StatusBadRequest
		errorMessage = err.Error()
	case errors.Is(err, service.ErrExternalAPIFailure):
		statusCode = http.StatusServiceUnavailable
		errorMessage = "external API failure"
	}

	h.log.Error("Service error", "error", err, "status_code", statusCode)
	h.sendErrorResponse(w, statusCode, errorMessage)
}
