package domain

import "time"

type DocumentType string

const (
	DocumentTypePurchase   DocumentType = "Purchase"
	DocumentTypeSales      DocumentType = "Sales"
	DocumentTypeAdjustment DocumentType = "Adjustment"
)

const DefaultCreatedBy = "system"

// InventoryEntry is one immutable ledger line. Quantity is signed:
// positive for inbound, negative for outbound.
type InventoryEntry struct {
	ID                 string       `json:"id"`
	DocumentNo         string       `json:"documentNo"`
	ItemNo             string       `json:"itemNo"`
	Quantity           int          `json:"quantity"`
	DocumentType       DocumentType `json:"documentType"`
	ExternalDocumentNo string       `json:"externalDocumentNo,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	CreatedBy          string       `json:"createdBy"`
}

type Stock struct {
	ItemNo   string `json:"itemNo"`
	Quantity int    `json:"quantity"`
}

func (s Stock) IsAvailable() bool {
	return s.Quantity > 0
}

type DocumentLine struct {
	ItemNo   string `json:"itemNo"`
	Quantity int    `json:"quantity"`
}

// StockDocument is a purchase or sales document that expands into one
// ledger entry per line.
type StockDocument struct {
	DocumentNo string         `json:"documentNo"`
	Lines      []DocumentLine `json:"items"`
}
