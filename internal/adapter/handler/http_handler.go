package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/core/service"
)

// BasketHandler serves the basket API, including checkout.
type BasketHandler struct {
	basketService   *service.BasketService
	checkoutService *service.CheckoutService
	log             *slog.Logger
	tracer          trace.Tracer
}

type CheckoutResponse struct {
	CheckoutID string          `json:"checkoutId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type BasketResponse struct {
	*domain.Basket
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type StockResponse struct {
	ItemNo      string `json:"itemNo"`
	Quantity    int    `json:"quantity"`
	IsAvailable bool   `json:"isAvailable"`
}

func NewBasketHandler(basketService *service.BasketService, checkoutService *service.CheckoutService, log *slog.Logger) *BasketHandler {
	return &BasketHandler{
		basketService:   basketService,
		checkoutService: checkoutService,
		log:             log,
		tracer:          otel.Tracer("basket-http"),
	}
}

func (h *BasketHandler) Mount(r chi.Router) {
	r.Route("/api/baskets", func(r chi.Router) {
		r.Post("/", h.UpdateBasket)
		r.Post("/checkout", h.Checkout)
		r.Get("/stock/{itemNo}", h.CheckStock)
		r.Get("/{userName}", h.GetBasket)
		r.Delete("/{userName}", h.DeleteBasket)
	})
}

func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	basket, err := h.basketService.GetBasket(r.Context(), chi.URLParam(r, "userName"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, BasketResponse{Basket: basket, TotalPrice: basket.TotalPrice()})
}

func (h *BasketHandler) UpdateBasket(w http.ResponseWriter, r *http.Request) {
	var basket domain.Basket
	if err := json.NewDecoder(r.Body).Decode(&basket); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if msg := validateBasket(&basket); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	updated, err := h.basketService.UpdateBasket(r.Context(), &basket)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, BasketResponse{Basket: updated, TotalPrice: updated.TotalPrice()})
}

func (h *BasketHandler) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	if _, err := h.basketService.DeleteBasket(r.Context(), chi.URLParam(r, "userName")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *BasketHandler) CheckStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.basketService.CheckStock(r.Context(), chi.URLParam(r, "itemNo"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StockResponse{
		ItemNo:      stock.ItemNo,
		Quantity:    stock.Quantity,
		IsAvailable: stock.IsAvailable(),
	})
}

// Checkout answers 202 once the checkout event is on the bus. The order
// itself is created asynchronously by the ordering service.
func (h *BasketHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserName == "" {
		writeBadRequest(w, "userName is required")
		return
	}
	span.SetAttributes(attribute.String("user_name", req.UserName))

	event, err := h.checkoutService.Checkout(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(w, r.WithContext(ctx), h.log, err)
		return
	}

	span.SetAttributes(attribute.String("checkout_id", event.CheckoutID))
	writeJSON(w, http.StatusAccepted, CheckoutResponse{CheckoutID: event.CheckoutID, TotalPrice: event.TotalPrice})
}

func validateBasket(b *domain.Basket) string {
	if b.UserName == "" {
		return "userName is required"
	}
	for _, item := range b.Items {
		if item.ItemNo == "" {
			return "every item needs an itemNo"
		}
		if item.Quantity <= 0 {
			return "item quantity must be greater than 0"
		}
		if item.ItemPrice.IsNegative() {
			return "item price must not be negative"
		}
		if !domain.HasCents(item.ItemPrice) {
			return "item price must have at most 2 decimal places"
		}
	}
	return ""
}
