package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	adminKey  string
	log       *zap.Logger
}

// Config carries the handler's environment-derived settings.
type Config struct {
	AllowedOrigins string
	JWTSecret      string
	AdminKey       string
}

// NewHandler creates and wires the chi router with all routes. Reads are
// public; every write sits behind the JWT middleware.
func NewHandler(svc app.ApplicationService, cfg Config, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:       svc,
		jwtSecret: cfg.JWTSecret,
		adminKey:  cfg.AdminKey,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// Public reads and auth.
	r.Get("/api/health", h.health)
	r.Post("/api/auth/token", h.token)
	r.Get("/api/report", h.report)
	r.Get("/api/stock", h.stock)
	r.Get("/api/stock/{item}", h.itemStatus)
	r.Get("/api/catalog", h.catalog)
	r.Get("/api/quotes/search", h.searchQuotes)

	// Writes.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/api/requests", h.processRequest)
		r.Post("/api/orders", h.processOrder)
		r.Post("/api/sales", h.recordSale)
		r.Post("/api/stock-orders", h.recordStockOrder)
		r.Post("/api/seed", h.seed)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status      string `json:"status"`
		CatalogSize int    `json:"catalog_size"`
	}
	writeJSON(w, response{Status: "ok", CatalogSize: h.svc.Catalog().Len()})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	report, err := h.svc.GetFinancialReport(r.Context(), asOf)
	if err != nil {
		writeError(w, r, "failed to build report", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetStock(r.Context(), asOf)
	if err != nil {
		writeError(w, r, "failed to get stock", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) itemStatus(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	item := chi.URLParam(r, "item")
	status, err := h.svc.GetItemStatus(r.Context(), item, asOf)
	if errors.Is(err, core.ErrUnknownItem) {
		writeError(w, r, err.Error(), "UNKNOWN_ITEM", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, "failed to get item status", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status)
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Catalog().Items())
}

func (h *Handler) searchQuotes(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query()["q"]
	if len(terms) == 0 {
		writeError(w, r, "at least one q parameter is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, r, "limit must be between 1 and 100", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := h.svc.SearchQuoteHistory(r.Context(), terms, limit)
	if err != nil {
		writeError(w, r, "search failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []core.QuoteRecord{}
	}
	writeJSON(w, records)
}

func (h *Handler) processRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string `json:"text"`
		RequestDate string `json:"request_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, r, "text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	date, ok := requestDate(w, r, req.RequestDate)
	if !ok {
		return
	}

	result, err := h.svc.ProcessRequest(r.Context(), req.Text, date)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string             `json:"text"`
		Lines       []core.RequestLine `json:"lines"`
		RequestDate string             `json:"request_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, r, "at least one line is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	for _, line := range req.Lines {
		if line.ItemName == "" || line.Quantity <= 0 {
			writeError(w, r, "each line needs an item_name and a positive quantity", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}
	date, ok := requestDate(w, r, req.RequestDate)
	if !ok {
		return
	}

	result, err := h.svc.ProcessOrder(r.Context(), req.Text, req.Lines, date)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type recordEventBody struct {
	ItemName    string `json:"item_name"`
	Units       int64  `json:"units"`
	TotalAmount string `json:"total_amount"`
	Date        string `json:"date"`
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, h.svc.RecordSale)
}

func (h *Handler) recordStockOrder(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, h.svc.RecordStockOrder)
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, req app.RecordEventRequest) (int64, error)) {
	var body recordEventBody
	if !decodeJSON(w, r, &body) {
		return
	}
	amount, err := decimal.NewFromString(body.TotalAmount)
	if err != nil {
		writeError(w, r, "invalid total_amount", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	date, ok := requestDate(w, r, body.Date)
	if !ok {
		return
	}

	id, err := record(r.Context(), app.RecordEventRequest{
		ItemName:    body.ItemName,
		Units:       body.Units,
		TotalAmount: amount,
		Date:        date,
	})
	if errors.Is(err, core.ErrUnknownItem) {
		writeError(w, r, err.Error(), "UNKNOWN_ITEM", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]int64{"event_id": id})
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"start_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := requestDate(w, r, req.StartDate)
	if !ok {
		return
	}
	if err := h.svc.SeedDemo(r.Context(), date); err != nil {
		writeError(w, r, "seed failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "seeded"})
}

// asOfParam reads the optional as_of query parameter, defaulting to today.
func asOfParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return core.DateOnly(time.Now()), true
	}
	t, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, r, "as_of must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

// requestDate parses a date field from a request body, defaulting to today
// when empty.
func requestDate(w http.ResponseWriter, r *http.Request, raw string) (time.Time, bool) {
	if raw == "" {
		return core.DateOnly(time.Now()), true
	}
	t, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, r, "date must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

// writePipelineError maps a pipeline failure to a generic 502. Callers never
// see stage detail; that goes to the log.
func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrPipelineFailed) {
		writeError(w, r, core.ErrPipelineFailed.Error(), "PIPELINE_FAILED", http.StatusBadGateway)
		return
	}
	writeError(w, r, "request processing failed", "INTERNAL_ERROR", http.StatusInternalServerError)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
