package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"

	"github.com/saliou-conde/vending-machine/internal/service"
)

// Handler содержит HTTP-обработчики каталога товаров
// Бизнес-статус всегда передаётся в конверте, протокольный статус 200
// 500 отдаётся только при инфраструктурных ошибках
type Handler struct {
	productService *service.ProductService
	logger         *zap.Logger
	now            func() time.Time
}

// NewHandler создаёт новый HTTP handler
func NewHandler(productService *service.ProductService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		productService: productService,
		logger:         logger,
		now:            time.Now,
	}
}

// ListProducts обрабатывает GET /api/v1/products - массив товаров без конверта
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.productService.ListProducts(ctx)
	if err != nil {
		h.internalError(w, r, service.ProductAPIPath, err)
		return
	}

	out := make([]ProductDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toProductDTO(v))
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// CreateProduct обрабатывает POST /api/v1/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, r, service.ProductAPIPath, "Invalid JSON: "+err.Error())
		return
	}
	if msg, ok := validateProduct(body); !ok {
		h.badRequest(w, r, service.ProductAPIPath, msg)
		return
	}

	result, err := h.productService.CreateProduct(ctx, toProductInput(body))
	if err != nil {
		h.internalError(w, r, service.ProductAPIPath, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEnvelope(result))
}

// GetProduct обрабатывает GET /api/v1/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	result, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		h.internalError(w, r, r.URL.Path, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEnvelope(result))
}

// DeleteProduct обрабатывает DELETE /api/v1/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	result, err := h.productService.DeleteProduct(r.Context(), id)
	if err != nil {
		h.internalError(w, r, r.URL.Path, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEnvelope(result))
}

// UpdateProduct обрабатывает PUT /api/v1/products/{id}
// Если товара нет, отвечает 200 с пустым телом
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var body ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, r, r.URL.Path, "Invalid JSON: "+err.Error())
		return
	}
	if msg, ok := validateProduct(body); !ok {
		h.badRequest(w, r, r.URL.Path, msg)
		return
	}

	result, err := h.productService.UpdateProduct(r.Context(), id, toProductInput(body))
	if err != nil {
		h.internalError(w, r, r.URL.Path, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toEnvelope(result))
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.badRequest(w, r, r.URL.Path, "Invalid product id: "+raw)
		return 0, false
	}
	return id, true
}

// validateProduct проверяет обязательные поля тела запроса; body "null" даёт пустой DTO
func validateProduct(body ProductDTO) (string, bool) {
	if strings.TrimSpace(body.ProductName) == "" {
		return "productName is required", false
	}
	return "", true
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, path, message string) {
	h.writeJSON(w, r, http.StatusOK, h.bareEnvelope(http.StatusBadRequest, path, message))
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, path string, err error) {
	platformobservability.L(r.Context(), h.logger).Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	h.writeJSON(w, r, http.StatusInternalServerError, h.bareEnvelope(http.StatusInternalServerError, path, "Internal server error"))
}

func (h *Handler) bareEnvelope(code int, path, message string) EnvelopeResponse {
	return EnvelopeResponse{
		Timestamp:  h.now().UTC().Format(time.RFC3339Nano),
		Status:     service.StatusName(code),
		StatusCode: code,
		Error:      message,
		Path:       path,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to encode response", zap.Error(err))
	}
}
