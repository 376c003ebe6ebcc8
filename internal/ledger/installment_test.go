package ledger

import (
	"errors"
	"testing"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/models"

	"github.com/shopspring/decimal"
)

func newEntry(total string, count int, base time.Time) Entry {
	return Entry{
		Description:   "Notebook",
		Total:         decimal.RequireFromString(total),
		Kind:          models.KindExpense,
		Institution:   "Nubank",
		PaymentMethod: "cartao",
		Installments:  count,
		DocumentType:  "nota_fiscal",
		BaseDate:      base,
	}
}

func TestExpand_ThreeInstallmentsFromMonthEnd(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows, err := Expand(newEntry("300", 3, base), 7)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}

	wantDue := []time.Time{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, r := range rows {
		if r.InstallmentCents != 10000 {
			t.Errorf("row %d cents = %d, want 10000", i, r.InstallmentCents)
		}
		if r.TotalCents != 30000 {
			t.Errorf("row %d total = %d, want 30000", i, r.TotalCents)
		}
		if !r.DueAt.Equal(wantDue[i]) {
			t.Errorf("row %d due = %v, want %v", i, r.DueAt, wantDue[i])
		}
		if r.InstallmentNumber != i+1 || r.InstallmentCount != 3 {
			t.Errorf("row %d numbering = %d/%d", i, r.InstallmentNumber, r.InstallmentCount)
		}
		if !r.IssuedAt.Equal(base) {
			t.Errorf("row %d issued = %v, want %v", i, r.IssuedAt, base)
		}
		if r.OwnerID != 7 {
			t.Errorf("row %d owner = %d, want 7", i, r.OwnerID)
		}
		if r.Currency != "BRL" {
			t.Errorf("row %d currency = %q, want BRL", i, r.Currency)
		}
	}
	if rows[1].Description != "Notebook (2/3)" {
		t.Errorf("description = %q, want %q", rows[1].Description, "Notebook (2/3)")
	}
}

func TestExpand_LastInstallmentTakesRemainder(t *testing.T) {
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows, err := Expand(newEntry("100", 3, base), 1)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	want := []int64{3333, 3333, 3334}
	var sum int64
	for i, r := range rows {
		if r.InstallmentCents != want[i] {
			t.Errorf("row %d cents = %d, want %d", i, r.InstallmentCents, want[i])
		}
		sum += r.InstallmentCents
	}
	if sum != 10000 {
		t.Errorf("sum = %d, want 10000", sum)
	}
}

func TestExpand_SingleInstallmentKeepsDescription(t *testing.T) {
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	e := newEntry("59.90", 1, base)
	e.Currency = "usd"
	rows, err := Expand(e, 1)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	if rows[0].Description != "Notebook" {
		t.Errorf("description = %q, want Notebook", rows[0].Description)
	}
	if rows[0].InstallmentCents != 5990 || rows[0].TotalCents != 5990 {
		t.Errorf("cents = %d/%d, want 5990", rows[0].InstallmentCents, rows[0].TotalCents)
	}
	if rows[0].Currency != "USD" {
		t.Errorf("currency = %q, want USD", rows[0].Currency)
	}
}

func TestExpand_SumAlwaysMatchesTotal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, total := range []string{"0.07", "1", "99.99", "1234.56", "10000"} {
		for _, count := range []int{1, 2, 3, 6, 7, 12} {
			e := newEntry(total, count, base)
			rows, err := Expand(e, 1)
			if err != nil {
				if count > 7 && total == "0.07" {
					continue
				}
				t.Fatalf("Expand(%s, %d) failed: %v", total, count, err)
			}
			var sum int64
			for _, r := range rows {
				sum += r.InstallmentCents
			}
			if sum != rows[0].TotalCents {
				t.Errorf("Expand(%s, %d): sum %d != total %d", total, count, sum, rows[0].TotalCents)
			}
		}
	}
}

func TestExpand_Rejects(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]func(e *Entry){
		"zero installments":      func(e *Entry) { e.Installments = 0 },
		"negative installments":  func(e *Entry) { e.Installments = -2 },
		"too many installments":  func(e *Entry) { e.Installments = MaxInstallments + 1 },
		"zero total":             func(e *Entry) { e.Total = decimal.Zero },
		"negative total":         func(e *Entry) { e.Total = decimal.RequireFromString("-10") },
		"total below one cent":   func(e *Entry) { e.Total = decimal.RequireFromString("0.004") },
		"fewer cents than parts": func(e *Entry) { e.Total = decimal.RequireFromString("0.02"); e.Installments = 3 },
		"unknown kind":           func(e *Entry) { e.Kind = "transferencia" },
		"missing description":    func(e *Entry) { e.Description = "  " },
		"missing institution":    func(e *Entry) { e.Institution = "" },
		"missing payment method": func(e *Entry) { e.PaymentMethod = "" },
		"missing document type":  func(e *Entry) { e.DocumentType = "" },
		"missing base date":      func(e *Entry) { e.BaseDate = time.Time{} },
		"total beyond int64":     func(e *Entry) { e.Total = decimal.RequireFromString("100000000000000000000"); e.Installments = 1 },
		"total above cap":        func(e *Entry) { e.Total = decimal.New(MaxTotalCents+1, -2); e.Installments = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEntry("300", 3, base)
			mutate(&e)
			rows, err := Expand(e, 1)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
			if rows != nil {
				t.Errorf("rows = %v, want nil", rows)
			}
		})
	}
}

func TestExpand_LargestTotal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := Expand(newEntry(decimal.New(MaxTotalCents, -2).String(), 7, base), 1)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	var sum int64
	for _, r := range rows {
		if r.TotalCents != MaxTotalCents {
			t.Errorf("total = %d, want %d", r.TotalCents, MaxTotalCents)
		}
		sum += r.InstallmentCents
	}
	if sum != MaxTotalCents {
		t.Errorf("installments sum to %d, want %d", sum, MaxTotalCents)
	}
}

func TestExpand_StoresUTC(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	base := time.Date(2024, 1, 31, 22, 0, 0, 0, brt)
	rows, err := Expand(newEntry("200", 2, base), 1)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	// months advance on the local calendar: Jan 31 then Feb 29, both 22:00 BRT
	wantDue := []time.Time{
		time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
	}
	for i, r := range rows {
		if r.DueAt.Location() != time.UTC || r.IssuedAt.Location() != time.UTC {
			t.Errorf("row %d not in UTC: due %v issued %v", i, r.DueAt, r.IssuedAt)
		}
		if !r.DueAt.Equal(wantDue[i]) {
			t.Errorf("row %d due = %v, want %v", i, r.DueAt, wantDue[i])
		}
	}
}

func TestAddMonths(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	cases := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), 2, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 8, 31, 14, 30, 0, 0, sp), 6, time.Date(2025, 2, 28, 14, 30, 0, 0, sp)},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), 0, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := AddMonths(tc.in, tc.n)
		if !got.Equal(tc.want) || got.Location() != tc.want.Location() {
			t.Errorf("AddMonths(%v, %d) = %v, want %v", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestParseBaseDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 22, 45, 0, 0, time.UTC)

	got, err := ParseBaseDate("", now)
	if err != nil {
		t.Fatalf("ParseBaseDate(\"\") failed: %v", err)
	}
	if want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("empty base = %v, want %v", got, want)
	}

	got, err = ParseBaseDate("2024-01-31", now)
	if err != nil {
		t.Fatalf("ParseBaseDate failed: %v", err)
	}
	if want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("base = %v, want %v", got, want)
	}

	for _, bad := range []string{"31/01/2024", "ontem", "2024-02-30"} {
		if _, err := ParseBaseDate(bad, now); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("ParseBaseDate(%q) error = %v, want ErrInvalidArgument", bad, err)
		}
	}
}

func TestSplitCents(t *testing.T) {
	parts := SplitCents(1001, 4)
	want := []int64{250, 250, 250, 251}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %d, want %d", i, parts[i], want[i])
		}
	}
	if SplitCents(100, 0) != nil {
		t.Error("zero parts should return nil")
	}
}
