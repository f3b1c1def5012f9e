package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsync/internal/service/handoff"
	"github.com/vladislavdragonenkov/cartsync/internal/service/view"
)

// Handler — браузерный JSON API корзины: им пользуются грид, страница корзины
// и модальное окно. Каждая мутация завершается синхронизацией поверхностей.
type Handler struct {
	store   *cart.Store
	sync    *view.Synchronizer
	handoff *handoff.Builder
	logger  *log.Entry
}

// NewHandler создаёт HTTP-обработчик поверх Cart Store.
func NewHandler(store *cart.Store, sync *view.Synchronizer, builder *handoff.Builder, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{
		store:   store,
		sync:    sync,
		handoff: builder,
		logger:  logger,
	}
}

// Routes собирает маршруты API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestLogger)

	r.Get("/cart", h.GetCart)
	r.Get("/cart/summary", h.GetSummary)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{productID}/{variantKey}", h.SetQuantity)
	r.Delete("/cart/items/{productID}/{variantKey}", h.RemoveItem)
	r.Post("/cart/clear", h.ClearCart)
	r.Post("/checkout", h.Checkout)

	return r
}

type addItemRequestDTO struct {
	ProductID  string `json:"product_id"`
	VariantKey string `json:"variant_key"`
	PriceMinor int64  `json:"price_minor"`
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	LineLabel  string `json:"line_label"`
	ImageRef   string `json:"image_ref"`
}

type setQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type cartResponseDTO struct {
	Items      domain.Cart `json:"items"`
	TotalItems int         `json:"total_items"`
	TotalMinor int64       `json:"total_minor"`
}

type summaryResponseDTO struct {
	TotalItems   int    `json:"total_items"`
	TotalMinor   int64  `json:"total_minor"`
	TotalDisplay string `json:"total_display"`
	BadgeVisible bool   `json:"badge_visible"`
}

type checkoutResponseDTO struct {
	Order    domain.OrderSummary `json:"order"`
	Message  string              `json:"message"`
	DeepLink string              `json:"deep_link"`
}

type errorResponseDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GetCart возвращает текущий снимок корзины в сохранённом порядке.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.respondCart(w, http.StatusOK)
}

// GetSummary возвращает данные для бейджа: количество и итог.
func (h *Handler) GetSummary(w http.ResponseWriter, _ *http.Request) {
	count := h.store.TotalItemCount()
	total := h.store.TotalPriceMinor()
	respondJSON(w, http.StatusOK, summaryResponseDTO{
		TotalItems:   count,
		TotalMinor:   total,
		TotalDisplay: handoff.FormatEuroMinor(total),
		BadgeVisible: count > 0,
	})
}

// AddItem добавляет товар в корзину (merge по паре товар+вариант).
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" || req.VariantKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", domain.ErrItemFieldsRequired.Error())
		return
	}
	if req.PriceMinor < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price_minor must be non-negative")
		return
	}

	err := h.store.AddItem(r.Context(), cart.AddItemRequest{
		ProductID:  req.ProductID,
		VariantKey: req.VariantKey,
		PriceMinor: req.PriceMinor,
		Name:       req.Name,
		Brand:      req.Brand,
		LineLabel:  req.LineLabel,
		ImageRef:   req.ImageRef,
	})
	if err != nil {
		h.respondStorageError(w, err)
		return
	}

	h.refreshSurfaces(req.ProductID)
	h.respondCart(w, http.StatusCreated)
}

// SetQuantity устанавливает количество позиции; 0 и меньше удаляет её.
// Отсутствующая позиция — no-op, ответ всё равно 200 с текущим состоянием.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantKey := chi.URLParam(r, "variantKey")

	var req setQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.store.SetQuantity(r.Context(), productID, variantKey, req.Quantity); err != nil {
		h.respondStorageError(w, err)
		return
	}

	h.refreshSurfaces(productID)
	h.respondCart(w, http.StatusOK)
}

// RemoveItem удаляет позицию; отсутствие позиции — no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantKey := chi.URLParam(r, "variantKey")

	if err := h.store.RemoveItem(r.Context(), productID, variantKey); err != nil {
		h.respondStorageError(w, err)
		return
	}

	h.refreshSurfaces(productID)
	h.respondCart(w, http.StatusOK)
}

// ClearCart опустошает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.respondStorageError(w, err)
		return
	}

	if h.sync != nil {
		h.sync.RefreshAll()
	}
	h.respondCart(w, http.StatusOK)
}

// Checkout собирает передаваемый заказ. Пустая корзина блокируется с 409
// и явным уведомлением; данные наружу при этом не уходят.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.handoff.BuildSummary(h.store.Items())
	if err != nil {
		if domain.IsEmptyCart(err) {
			respondError(w, http.StatusConflict, "empty_cart", "Votre panier est vide")
			return
		}
		h.logger.WithError(err).Error("checkout failed")
		respondError(w, http.StatusInternalServerError, "internal", "checkout failed")
		return
	}

	respondJSON(w, http.StatusAccepted, checkoutResponseDTO{
		Order:    summary,
		Message:  h.handoff.Message(summary),
		DeepLink: h.handoff.DeepLink(summary),
	})
}

// refreshSurfaces обновляет поверхности после мутации конкретного товара.
func (h *Handler) refreshSurfaces(productID string) {
	if h.sync == nil {
		return
	}
	h.sync.RefreshBadge()
	h.sync.RefreshModal()
	h.sync.ApplyCardHighlight(productID)
}

func (h *Handler) respondCart(w http.ResponseWriter, status int) {
	items := h.store.Items()
	respondJSON(w, status, cartResponseDTO{
		Items:      items,
		TotalItems: items.TotalItems(),
		TotalMinor: items.TotalMinor(),
	})
}

func (h *Handler) respondStorageError(w http.ResponseWriter, err error) {
	h.logger.WithError(err).Error("cart state write failed")
	if errors.Is(err, domain.ErrStateUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart storage unavailable")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal", "failed to persist cart state")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponseDTO{Error: message, Code: code})
}

// requestLogger логирует каждый запрос на debug-уровне.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}
