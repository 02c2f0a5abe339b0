package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/core/service"
)

type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

type orderRequest struct {
	UserName        string          `json:"userName"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	EmailAddress    string          `json:"emailAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	InvoiceAddress  string          `json:"invoiceAddress"`
	Status          string          `json:"status,omitempty"`
}

type OrderResponse struct {
	ID              int64           `json:"id"`
	CheckoutID      string          `json:"checkoutId,omitempty"`
	UserName        string          `json:"userName"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	EmailAddress    string          `json:"emailAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	InvoiceAddress  string          `json:"invoiceAddress"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, log: log}
}

func (h *OrderHandler) Mount(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{userName}", h.GetOrders)
		r.Put("/{id}", h.UpdateOrder)
		r.Delete("/{id}", h.DeleteOrder)
	})
}

func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.GetOrdersByUser(r.Context(), chi.URLParam(r, "userName"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	id, err := h.orderService.CreateOrder(r.Context(), service.CreateOrderCommand{
		UserName:        req.UserName,
		TotalPrice:      req.TotalPrice,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		EmailAddress:    req.EmailAddress,
		ShippingAddress: req.ShippingAddress,
		InvoiceAddress:  req.InvoiceAddress,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var status domain.OrderStatus
	if req.Status != "" {
		parsed, err := domain.ParseOrderStatus(req.Status)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		status = parsed
	}

	err := h.orderService.UpdateOrder(r.Context(), service.UpdateOrderCommand{
		ID:              id,
		UserName:        req.UserName,
		TotalPrice:      req.TotalPrice,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		EmailAddress:    req.EmailAddress,
		ShippingAddress: req.ShippingAddress,
		InvoiceAddress:  req.InvoiceAddress,
		Status:          status,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func toOrderResponse(o *domain.Order) OrderResponse {
	d := o.Details()
	return OrderResponse{
		ID:              o.ID(),
		CheckoutID:      o.CheckoutID(),
		UserName:        d.UserName,
		TotalPrice:      d.TotalPrice,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		EmailAddress:    d.EmailAddress,
		ShippingAddress: d.ShippingAddress,
		InvoiceAddress:  d.InvoiceAddress,
		Status:          string(o.Status()),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}
}
