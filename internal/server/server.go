package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/documents"
	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/pkg/datetime"
	"github.com/iwvelando/setaside/pkg/format"
	"github.com/iwvelando/setaside/pkg/mathutil"
	"github.com/iwvelando/setaside/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the API serves from. Documents may be
// nil, in which case the download route reports the feature as unavailable.
type Dependencies struct {
	Service   *setaside.Service
	Documents documents.Fetcher
	Now       func() time.Time
}

type handler struct {
	logger           *zap.Logger
	service          *setaside.Service
	documents        documents.Fetcher
	now              func() time.Time
	maxUploadSize    int64
	batchConcurrency int
	version          string
}

// NewHandler constructs the HTTP handler for the set-aside API.
func NewHandler(logger *zap.Logger, cfg *Config, deps Dependencies, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:           logger,
		service:          deps.Service,
		documents:        deps.Documents,
		now:              deps.Now,
		maxUploadSize:    cfg.UploadSizeBytes(),
		batchConcurrency: cfg.BatchConcurrency,
		version:          trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/allocation", h.handleAllocation)
		r.Post("/installment-dates", h.handleInstallmentDates)
		r.Post("/payoff", h.handlePayoff)
		r.Get("/format", h.handleFormat)
		r.Get("/version", h.handleVersion)
		r.Get("/documents/{key}", h.handleDocument)

		r.Route("/set-aside/requests", func(r chi.Router) {
			r.Post("/", h.handleSubmit)
			r.Post("/batch", h.handleSubmitBatch)
			r.Get("/{id}/outcome", h.handleOutcome)
			r.Delete("/{id}", h.handleDelete)
		})
		r.Get("/loans/{loanID}/set-aside/requests", h.handleListRequests)
	})

	return r
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request served",
			zap.String("op", "server.requestLogger"),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// amountString accepts a JSON string or number and keeps its text.
type amountString string

func (a *amountString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountString(s)
		return nil
	}
	if string(data) == "null" {
		*a = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = amountString(n.String())
	return nil
}

type allocationRequest struct {
	TotalAmount                            amountString    `json:"totalAmount"`
	NonCapitalizedInterestCapacity         decimal.Decimal `json:"nonCapitalizedInterestCapacity"`
	DeferredNonCapitalizedInterestCapacity decimal.Decimal `json:"deferredNonCapitalizedInterestCapacity"`
	DeferredInterestCapacity               decimal.Decimal `json:"deferredInterestCapacity"`
	AccruedInterestCapacity                decimal.Decimal `json:"accruedInterestCapacity"`
}

type allocationResponse struct {
	Allocation allocation.Output `json:"allocation"`
	Amounts    []float64         `json:"amounts"`
	Buckets    []string          `json:"buckets"`
	Total      decimal.Decimal   `json:"total"`
	Formatted  map[string]string `json:"formatted"`
}

func (h *handler) handleAllocation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAllocation"

	var req allocationRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	out := allocation.AllocateString(string(req.TotalAmount),
		req.NonCapitalizedInterestCapacity,
		req.DeferredNonCapitalizedInterestCapacity,
		req.DeferredInterestCapacity,
		req.AccruedInterestCapacity,
	)

	formatted := make(map[string]string, len(allocation.Buckets))
	for i, amount := range out.Amounts() {
		formatted[allocation.Buckets[i]] = format.CurrencyDecimal(amount)
	}

	h.writeJSON(w, http.StatusOK, allocationResponse{
		Allocation: out,
		Amounts:    out.Float64s(),
		Buckets:    allocation.Buckets,
		Total:      out.Total(),
		Formatted:  formatted,
	})
}

type installmentDatesRequest struct {
	NextDueDate  string `json:"nextDueDate"`
	MaturityDate string `json:"maturityDate"`
	Today        string `json:"today,omitempty"`
	Selected     string `json:"selected,omitempty"`
}

func (h *handler) handleInstallmentDates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleInstallmentDates"

	var req installmentDatesRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	nextDue, err := parseRequiredDate("nextDueDate", req.NextDueDate)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	maturity, err := parseRequiredDate("maturityDate", req.MaturityDate)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	today := h.now()
	if strings.TrimSpace(req.Today) != "" {
		if today, err = parseRequiredDate("today", req.Today); err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, h.service.InstallmentOptions(nextDue, maturity, today, req.Selected))
}

func parseRequiredDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := datetime.ParseFlexible(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}

type validationResponse struct {
	Error  string                 `json:"error"`
	Fields validation.FieldErrors `json:"fields"`
}

func (h *handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmit"

	var sub setaside.Submission
	if !h.decodeJSON(w, r, &sub, op) {
		return
	}

	res, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Fields: fieldErrs})
			return
		}
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusCreated, res)
}

type batchRequest struct {
	Submissions []setaside.Submission `json:"submissions"`
	Concurrency int                   `json:"concurrency,omitempty"`
}

type batchResponse struct {
	Results  []setaside.BatchResult `json:"results"`
	Duration string                 `json:"duration"`
}

func (h *handler) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmitBatch"
	start := time.Now()

	var req batchRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if len(req.Submissions) == 0 {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "submissions must not be empty", op)
		return
	}

	limit := req.Concurrency
	if limit <= 0 || limit > h.batchConcurrency {
		limit = h.batchConcurrency
	}

	results, err := h.service.SubmitBatch(r.Context(), req.Submissions, limit)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, batchResponse{Results: results, Duration: time.Since(start).String()})
}

func (h *handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOutcome"

	out, err := h.service.Outcome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDelete"

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, r, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListRequests"

	loanID, err := strconv.ParseInt(chi.URLParam(r, "loanID"), 10, 64)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "loanID must be an integer", op)
		return
	}

	reqs, err := h.service.List(r.Context(), loanID)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	if reqs == nil {
		reqs = []setaside.Request{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"loanId": loanID, "requests": reqs})
}

type payoffRequest struct {
	Outstanding         setaside.LoanOutstanding `json:"outstanding"`
	DBSAAccruedInterest string                   `json:"dbsaAccruedInterest"`
}

type payoffResponse struct {
	DBSA          decimal.Decimal `json:"dbsa"`
	Note          decimal.Decimal `json:"note"`
	DBSAFormatted string          `json:"dbsaFormatted"`
	NoteFormatted string          `json:"noteFormatted"`
}

func (h *handler) handlePayoff(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePayoff"

	var req payoffRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	dbsa := setaside.TotalPayoffDBSA(req.Outstanding, req.DBSAAccruedInterest)
	note := setaside.TotalPayoffNote(req.Outstanding)
	h.writeJSON(w, http.StatusOK, payoffResponse{
		DBSA:          dbsa,
		Note:          note,
		DBSAFormatted: format.CurrencyDecimal(dbsa),
		NoteFormatted: format.CurrencyDecimal(note),
	})
}

func (h *handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDocument"

	if h.documents == nil {
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "document storage is not configured", op)
		return
	}

	key := chi.URLParam(r, "key")
	fileName := strings.TrimSpace(r.URL.Query().Get("fileName"))
	if fileName == "" {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "fileName is required", op)
		return
	}

	doc, err := h.documents.Fetch(r.Context(), key, fileName)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			h.respondErrorWithOp(w, r, http.StatusNotFound, "document not found", op)
			return
		}
		h.respondErrorWithOp(w, r, http.StatusBadGateway, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		h.logger.Warn("failed to write document",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (h *handler) handleFormat(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFormat"

	query := r.URL.Query()
	mode, err := format.ParseMode(query.Get("mode"))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	value := query.Get("value")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"value":     value,
		"amount":    mathutil.ParseAmount(value),
		"formatted": format.StringToCurrencyOrPercent(value, mode),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, setaside.ErrNotFound) {
		h.respondErrorWithOp(w, r, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
		zap.String("requestId", middleware.GetReqID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("set-aside request failed", fields...)
	} else {
		h.logger.Warn("set-aside request rejected", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
