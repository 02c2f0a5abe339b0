package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

// StockQueryService answers stock questions from the inventory ledger and
// appends new ledger documents. Stock is always derived by summing entries.
type StockQueryService struct {
	ledger port.LedgerRepository
	log    *slog.Logger
}

func NewStockQueryService(ledger port.LedgerRepository, log *slog.Logger) *StockQueryService {
	return &StockQueryService{ledger: ledger, log: log}
}

func (s *StockQueryService) GetStock(ctx context.Context, itemNo string) (domain.Stock, error) {
	qty, err := s.ledger.SumQuantity(ctx, itemNo)
	if err != nil {
		return domain.Stock{}, fmt.Errorf("%w: sum quantity for %s: %v", ErrStoreUnavailable, itemNo, err)
	}
	return domain.Stock{ItemNo: itemNo, Quantity: qty}, nil
}

// GetStocks returns the quantity of every requested item using a single
// aggregation. Items with no ledger entries are reported as 0.
func (s *StockQueryService) GetStocks(ctx context.Context, itemNos []string) (map[string]int, error) {
	unique := dedupe(itemNos)
	result := make(map[string]int, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	sums, err := s.ledger.SumQuantities(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("%w: sum quantities: %v", ErrStoreUnavailable, err)
	}

	for _, itemNo := range unique {
		result[itemNo] = sums[itemNo]
	}
	return result, nil
}

func (s *StockQueryService) ListEntries(ctx context.Context, itemNo string) ([]domain.InventoryEntry, error) {
	entries, err := s.ledger.ListEntries(ctx, itemNo)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries for %s: %v", ErrStoreUnavailable, itemNo, err)
	}
	return entries, nil
}

// RecordPurchase books every line of doc as inbound stock.
func (s *StockQueryService) RecordPurchase(ctx context.Context, doc domain.StockDocument) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	entries := documentEntries(doc, domain.DocumentTypePurchase, 1)
	if err := s.ledger.AppendEntries(ctx, entries); err != nil {
		return fmt.Errorf("append purchase %s: %w", doc.DocumentNo, err)
	}

	s.log.Info("purchase order recorded", "document_no", doc.DocumentNo, "lines", len(entries))
	return nil
}

// RecordSale books every line of doc as outbound stock after checking that
// no item would go below zero.
func (s *StockQueryService) RecordSale(ctx context.Context, doc domain.StockDocument) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	requested := make(map[string]int, len(doc.Lines))
	itemNos := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if _, ok := requested[line.ItemNo]; !ok {
			itemNos = append(itemNos, line.ItemNo)
		}
		requested[line.ItemNo] += line.Quantity
	}

	current, err := s.GetStocks(ctx, itemNos)
	if err != nil {
		return err
	}
	for _, itemNo := range itemNos {
		if current[itemNo] < requested[itemNo] {
			s.log.Warn("insufficient stock for sales order",
				"document_no", doc.DocumentNo, "item_no", itemNo,
				"available", current[itemNo], "requested", requested[itemNo])
			return &InsufficientStockError{ItemNo: itemNo, Available: current[itemNo], Requested: requested[itemNo]}
		}
	}

	entries := documentEntries(doc, domain.DocumentTypeSales, -1)
	if err := s.ledger.AppendEntries(ctx, entries); err != nil {
		return fmt.Errorf("append sale %s: %w", doc.DocumentNo, err)
	}

	s.log.Info("sales order recorded", "document_no", doc.DocumentNo, "lines", len(entries))
	return nil
}

// RecordAdjustment books a single signed correction.
func (s *StockQueryService) RecordAdjustment(ctx context.Context, entry domain.InventoryEntry) (string, error) {
	if entry.ItemNo == "" || entry.DocumentNo == "" || entry.Quantity == 0 {
		return "", fmt.Errorf("%w: adjustment needs documentNo, itemNo and a non-zero quantity", ErrInvalidDocument)
	}

	entry.ID = uuid.NewString()
	entry.DocumentType = domain.DocumentTypeAdjustment
	entry.CreatedAt = time.Now().UTC()
	if entry.CreatedBy == "" {
		entry.CreatedBy = domain.DefaultCreatedBy
	}

	if err := s.ledger.AppendEntries(ctx, []domain.InventoryEntry{entry}); err != nil {
		return "", fmt.Errorf("append adjustment %s: %w", entry.DocumentNo, err)
	}
	return entry.ID, nil
}

func validateDocument(doc domain.StockDocument) error {
	if doc.DocumentNo == "" {
		return fmt.Errorf("%w: documentNo is required", ErrInvalidDocument)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: document %s has no lines", ErrInvalidDocument, doc.DocumentNo)
	}
	for _, line := range doc.Lines {
		if line.ItemNo == "" || line.Quantity <= 0 {
			return fmt.Errorf("%w: document %s has a line without itemNo or positive quantity", ErrInvalidDocument, doc.DocumentNo)
		}
	}
	return nil
}

func documentEntries(doc domain.StockDocument, docType domain.DocumentType, sign int) []domain.InventoryEntry {
	now := time.Now().UTC()
	entries := make([]domain.InventoryEntry, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		entries = append(entries, domain.InventoryEntry{
			ID:                 uuid.NewString(),
			DocumentNo:         doc.DocumentNo,
			ItemNo:             line.ItemNo,
			Quantity:           sign * line.Quantity,
			DocumentType:       docType,
			ExternalDocumentNo: doc.DocumentNo,
			CreatedAt:          now,
			CreatedBy:          domain.DefaultCreatedBy,
		})
	}
	return entries
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
