package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows an owner's transactions. From and To are inclusive
// calendar days compared against the due date; zero values disable a bound.
type TransactionFilter struct {
	Institution string
	From        time.Time
	To          time.Time
}

// Totals is the income/expense aggregate of a filtered set, in cents.
type Totals struct {
	IncomeCents  int64
	ExpenseCents int64
}

type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// CreateBatch inserts all rows in one database transaction. If any insert fails
// nothing is persisted.
func (s *TransactionStore) CreateBatch(ctx context.Context, rows []models.Transaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return fmt.Errorf("insert installment %d/%d: %w", i+1, len(rows), err)
			}
		}
		return nil
	})
	if err != nil {
		for i := range rows {
			rows[i].ID = 0
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *TransactionStore) scoped(ctx context.Context, ownerID uint, f TransactionFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("dono_id = ?", ownerID)
	if f.Institution != "" {
		q = q.Where("instituicao = ?", f.Institution)
	}
	if !f.From.IsZero() {
		q = q.Where("data_vencimento >= ?", startOfDay(f.From))
	}
	if !f.To.IsZero() {
		// end date counts as the whole day: < to+1 day
		q = q.Where("data_vencimento < ?", startOfDay(f.To).AddDate(0, 0, 1))
	}
	return q
}

// List returns the owner's rows, latest due date first.
func (s *TransactionStore) List(ctx context.Context, ownerID uint, f TransactionFilter) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := s.scoped(ctx, ownerID, f).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "data_vencimento"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}

// Totals sums installment amounts per kind over the filtered set.
func (s *TransactionStore) Totals(ctx context.Context, ownerID uint, f TransactionFilter) (Totals, error) {
	var t Totals
	err := s.scoped(ctx, ownerID, f).
		Select(
			"COALESCE(SUM(CASE WHEN tipo = ? THEN valor_parcela_centavos ELSE 0 END), 0) AS income_cents, "+
				"COALESCE(SUM(CASE WHEN tipo = ? THEN valor_parcela_centavos ELSE 0 END), 0) AS expense_cents",
			models.KindIncome, models.KindExpense,
		).
		Scan(&t).Error
	if err != nil {
		return Totals{}, fmt.Errorf("sum transactions: %w", err)
	}
	return t, nil
}

// GetOwned loads a row only if it belongs to ownerID.
func (s *TransactionStore) GetOwned(ctx context.Context, ownerID, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Where("id = ? AND dono_id = ?", id, ownerID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// DeleteOwned removes a row only if it belongs to ownerID. Missing and foreign
// rows both yield apperr.ErrNotFound.
func (s *TransactionStore) DeleteOwned(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND dono_id = ?", id, ownerID).
		Delete(&models.Transaction{})
	if res.Error != nil {
		return fmt.Errorf("delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Delete removes a row regardless of owner.
func (s *TransactionStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Transaction{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// startOfDay returns UTC midnight of t's calendar day; due dates are stored in UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
