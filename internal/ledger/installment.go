// Package ledger expands entered transactions into installments and answers
// owner-scoped statement and balance queries.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/models"
	"money-layer/internal/util"

	"github.com/shopspring/decimal"
)

const (
	// MaxInstallments bounds the number of rows a single entry may create.
	MaxInstallments = 360
	// MaxTotalCents caps a single entry at 10^13 in currency units.
	MaxTotalCents int64 = 1_000_000_000_000_000
)

var maxTotal = decimal.New(MaxTotalCents, -2)

// Entry is one logical transaction as entered by a user.
type Entry struct {
	Description    string
	Total          decimal.Decimal
	Kind           string
	Institution    string
	Currency       string
	PaymentMethod  string
	Installments   int
	DocumentType   string
	DocumentNumber *string
	FiscalDetails  *string
	// BaseDate is the due date of the first installment.
	BaseDate time.Time
}

// ParseBaseDate parses a client supplied base date. An empty string means today
// (UTC midnight); anything unparsable is rejected instead of defaulting.
func ParseBaseDate(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := util.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Invalid("data_base: %v", err)
	}
	return t, nil
}

// AddMonths advances t by n calendar months, keeping the day of month when it
// exists and clamping to the last day otherwise (Jan 31 + 1 = Feb 28/29).
// Time of day and location are preserved.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SplitCents divides total into count parts. Every part gets total/count and the
// last one also takes the remainder, so the parts always add up to total.
func SplitCents(total int64, count int) []int64 {
	if count < 1 {
		return nil
	}
	share := total / int64(count)
	parts := make([]int64, count)
	for i := range parts {
		parts[i] = share
	}
	parts[count-1] += total - share*int64(count)
	return parts
}

func (e Entry) validate() (int64, error) {
	if strings.TrimSpace(e.Description) == "" {
		return 0, apperr.Invalid("descricao is required")
	}
	if e.Installments < 1 {
		return 0, apperr.Invalid("qtd_parcelas must be at least 1, got %d", e.Installments)
	}
	if e.Installments > MaxInstallments {
		return 0, apperr.Invalid("qtd_parcelas must be at most %d, got %d", MaxInstallments, e.Installments)
	}
	switch e.Kind {
	case models.KindIncome, models.KindExpense:
	default:
		return 0, apperr.Invalid("tipo must be %q or %q", models.KindIncome, models.KindExpense)
	}
	if strings.TrimSpace(e.Institution) == "" {
		return 0, apperr.Invalid("instituicao is required")
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return 0, apperr.Invalid("forma_pagamento is required")
	}
	if strings.TrimSpace(e.DocumentType) == "" {
		return 0, apperr.Invalid("tipo_documento is required")
	}
	if e.BaseDate.IsZero() {
		return 0, apperr.Invalid("data_base is required")
	}

	if e.Total.Round(2).GreaterThan(maxTotal) {
		return 0, apperr.Invalid("valor must be at most %s", maxTotal.StringFixed(2))
	}
	cents := util.ToCents(e.Total)
	if cents <= 0 {
		return 0, apperr.Invalid("valor must be positive")
	}
	if cents < int64(e.Installments) {
		return 0, apperr.Invalid("valor %s cannot be split into %d installments", util.FormatCents(cents), e.Installments)
	}
	return cents, nil
}

// Expand turns an entry into one row per installment, owned by ownerID.
func Expand(e Entry, ownerID uint) ([]models.Transaction, error) {
	total, err := e.validate()
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(e.Currency))
	if currency == "" {
		currency = "BRL"
	}

	// months are counted in the caller's zone, rows are stored as UTC instants
	parts := SplitCents(total, e.Installments)
	rows := make([]models.Transaction, e.Installments)
	for i := range rows {
		desc := strings.TrimSpace(e.Description)
		if e.Installments > 1 {
			desc = fmt.Sprintf("%s (%d/%d)", desc, i+1, e.Installments)
		}
		rows[i] = models.Transaction{
			Description:       desc,
			TotalCents:        total,
			InstallmentCents:  parts[i],
			Kind:              e.Kind,
			Institution:       strings.TrimSpace(e.Institution),
			Currency:          currency,
			PaymentMethod:     strings.TrimSpace(e.PaymentMethod),
			InstallmentNumber: i + 1,
			InstallmentCount:  e.Installments,
			DocumentType:      strings.TrimSpace(e.DocumentType),
			DocumentNumber:    e.DocumentNumber,
			FiscalDetails:     e.FiscalDetails,
			IssuedAt:          e.BaseDate.UTC(),
			DueAt:             AddMonths(e.BaseDate, i).UTC(),
			OwnerID:           ownerID,
		}
	}
	return rows, nil
}
