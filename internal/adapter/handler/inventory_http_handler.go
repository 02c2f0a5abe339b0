package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/core/service"
)

// InventoryHandler exposes the ledger over HTTP. Stock reads here are the
// same aggregation the gRPC service answers with.
type InventoryHandler struct {
	stockService *service.StockQueryService
	log          *slog.Logger
}

type adjustmentRequest struct {
	DocumentNo         string `json:"documentNo"`
	ItemNo             string `json:"itemNo"`
	Quantity           int    `json:"quantity"`
	ExternalDocumentNo string `json:"externalDocumentNo"`
	CreatedBy          string `json:"createdBy"`
}

func NewInventoryHandler(stockService *service.StockQueryService, log *slog.Logger) *InventoryHandler {
	return &InventoryHandler{stockService: stockService, log: log}
}

func (h *InventoryHandler) Mount(r chi.Router) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/items/{itemNo}/stock", h.GetStock)
		r.Get("/items/{itemNo}/entries", h.ListEntries)
		r.Post("/purchase", h.RecordPurchase)
		r.Post("/sales", h.RecordSale)
		r.Post("/adjustments", h.RecordAdjustment)
	})
}

func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockService.GetStock(r.Context(), chi.URLParam(r, "itemNo"))
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

func (h *InventoryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stockService.ListEntries(r.Context(), chi.URLParam(r, "itemNo"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []domain.InventoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *InventoryHandler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var doc domain.StockDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if err := h.stockService.RecordPurchase(r.Context(), doc); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *InventoryHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var doc domain.StockDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if err := h.stockService.RecordSale(r.Context(), doc); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *InventoryHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	id, err := h.stockService.RecordAdjustment(r.Context(), domain.InventoryEntry{
		DocumentNo:         req.DocumentNo,
		ItemNo:             req.ItemNo,
		Quantity:           req.Quantity,
		ExternalDocumentNo: req.ExternalDocumentNo,
		CreatedBy:          req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
