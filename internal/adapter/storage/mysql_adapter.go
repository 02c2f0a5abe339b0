package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

// MySQLAdapter stores the inventory ledger. The statements stick to SQL that
// MySQL and SQLite both accept.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) AppendEntries(ctx context.Context, entries []domain.InventoryEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory_entries
			(id, document_no, item_no, quantity, document_type, external_document_no, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert entry: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err = stmt.ExecContext(ctx,
			e.ID, e.DocumentNo, e.ItemNo, e.Quantity, string(e.DocumentType),
			nullString(e.ExternalDocumentNo), e.CreatedAt, e.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) SumQuantity(ctx context.Context, itemNo string) (int, error) {
	var total int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_entries WHERE item_no = ?`, itemNo,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum quantity: %w", err)
	}
	return int(total), nil
}

func (m *MySQLAdapter) SumQuantities(ctx context.Context, itemNos []string) (map[string]int, error) {
	result := make(map[string]int, len(itemNos))
	if len(itemNos) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemNos)), ",")
	args := make([]any, len(itemNos))
	for i, itemNo := range itemNos {
		args[i] = itemNo
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT item_no, SUM(quantity)
		FROM inventory_entries
		WHERE item_no IN (`+placeholders+`)
		GROUP BY item_no`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum quantities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemNo string
		var total int64
		if err := rows.Scan(&itemNo, &total); err != nil {
			return nil, fmt.Errorf("scan quantity: %w", err)
		}
		result[itemNo] = int(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quantities: %w", err)
	}

	return result, nil
}

func (m *MySQLAdapter) ListEntries(ctx context.Context, itemNo string) ([]domain.InventoryEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, document_no, item_no, quantity, document_type, external_document_no, created_at, created_by
		FROM inventory_entries
		WHERE item_no = ?
		ORDER BY created_at, document_no`, itemNo)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.InventoryEntry
	for rows.Next() {
		var e domain.InventoryEntry
		var docType string
		var external sql.NullString
		err := rows.Scan(&e.ID, &e.DocumentNo, &e.ItemNo, &e.Quantity, &docType, &external, &e.CreatedAt, &e.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.DocumentType = domain.DocumentType(docType)
		e.ExternalDocumentNo = external.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
