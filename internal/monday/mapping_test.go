package monday

import (
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

func cell(id, text string) ColumnValue {
	return ColumnValue{ID: id, Text: text}
}

func wonDeal(cols Columns, cells ...ColumnValue) Item {
	base := []ColumnValue{
		cell(cols["unit"], "M10"),
		{ID: cols["length_of_stay"], Text: "2025-09-01 - 2026-06-30", Value: `{"from":"2025-09-01","to":"2026-06-30","changed_at":"2025-05-02"}`},
		cell(cols["rate_agreed"], "£350"),
		cell(cols["payment_plan"], "Installments"),
		cell(cols["sign_date"], "2025-05-02"),
	}
	return Item{ID: "8801", Name: " Ada Lovelace ", ColumnValues: append(base, cells...)}
}

func TestNormalizeRoomID(t *testing.T) {
	tests := map[string]string{
		"M10":   "MEZZ 10",
		"m7":    "MEZZ 7",
		"-1.10": "-1.1",
		"0.10":  "0.1",
		"3.07":  "3.07",
		"MEZZ":  "MEZZ",
		" 2.11": "2.11",
		"":      "",
	}
	for in, want := range tests {
		if got := NormalizeRoomID(in); got != want {
			t.Fatalf("NormalizeRoomID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"£1,250.50": 1250.5,
		" 320 ":     320,
		"":          0,
		"n/a":       0,
		"£ 12 000":  12000,
	}
	for in, want := range tests {
		if got := parseNumber(in); got != want {
			t.Fatalf("parseNumber(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMapPaymentStatus(t *testing.T) {
	tests := map[string]model.PaymentStatus{
		"Paid":     model.PaymentPaid,
		"Received": model.PaymentPaid,
		"Partial":  model.PaymentPartial,
		"Overdue":  model.PaymentOverdue,
		"Late":     model.PaymentOverdue,
		"Unpaid":   model.PaymentPending,
		"Awaiting": model.PaymentPending,
		"":         model.PaymentPending,
	}
	for in, want := range tests {
		if got := MapPaymentStatus(in); got != want {
			t.Fatalf("MapPaymentStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapDeal(t *testing.T) {
	cols := DefaultColumns()
	it := wonDeal(cols,
		cell(cols["booking_fee_amount"], "£500"),
		cell(cols["booking_fee_due"], "2025-05-02"),
		cell(cols["booking_fee_status"], "Paid"),
		cell(cols["booking_fee_paid"], "500"),
		cell(cols["booking_fee_paid_date"], "2025-05-03"),
		cell(cols["instalment_1_amount"], "£7,000"),
		cell(cols["instalment_1_due"], "2025-09-01"),
		cell(cols["instalment_2_amount"], "£7,000"),
		cell(cols["instalment_3_amount"], "0"),
	)

	deal, err := MapDeal(it, cols)
	if err != nil {
		t.Fatalf("MapDeal() error = %v", err)
	}
	c := deal.Contract
	if c.RoomID != "MEZZ 10" {
		t.Fatalf("RoomID = %q, want MEZZ 10", c.RoomID)
	}
	if c.ResidentName != "Ada Lovelace" {
		t.Fatalf("ResidentName = %q, want trimmed name", c.ResidentName)
	}
	if !c.StartDate.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartDate = %v", c.StartDate)
	}
	if c.WeeklyRate != 350 {
		t.Fatalf("WeeklyRate = %v, want 350", c.WeeklyRate)
	}
	if c.TotalValue != 14500 {
		t.Fatalf("TotalValue = %v, want 14500 (sum of instalments when gross income is empty)", c.TotalValue)
	}
	if c.Status != model.StatusActive {
		t.Fatalf("Status = %q, want active", c.Status)
	}

	if len(deal.Payments) != 3 {
		t.Fatalf("payments = %d, want 3 (zero amounts skipped)", len(deal.Payments))
	}
	fee := deal.Payments[0]
	if fee.PaymentType != model.PaymentDeposit || fee.Status != model.PaymentPaid || fee.PaidAmount != 500 {
		t.Fatalf("booking fee = %+v", fee)
	}
	if fee.PaidDate.IsZero() {
		t.Fatal("booking fee PaidDate not parsed")
	}
	second := deal.Payments[2]
	if !second.DueDate.Equal(c.StartDate) {
		t.Fatalf("instalment without due date = %v, want contract start", second.DueDate)
	}
	if second.Status != model.PaymentPending {
		t.Fatalf("instalment status = %q, want pending", second.Status)
	}
}

func TestMapDeal_GrossIncomeWins(t *testing.T) {
	cols := DefaultColumns()
	it := wonDeal(cols,
		cell(cols["gross_income"], "£15,050.00"),
		cell(cols["instalment_1_amount"], "7000"),
	)
	deal, err := MapDeal(it, cols)
	if err != nil {
		t.Fatalf("MapDeal() error = %v", err)
	}
	if deal.Contract.TotalValue != 15050 {
		t.Fatalf("TotalValue = %v, want 15050", deal.Contract.TotalValue)
	}
}

func TestMapDeal_Skips(t *testing.T) {
	cols := DefaultColumns()

	noUnit := Item{ID: "1", Name: "No Unit"}
	if _, err := MapDeal(noUnit, cols); err == nil {
		t.Fatal("MapDeal without unit should fail")
	}

	noDates := Item{ID: "2", Name: "No Dates", ColumnValues: []ColumnValue{cell(cols["unit"], "2.04")}}
	if _, err := MapDeal(noDates, cols); err == nil {
		t.Fatal("MapDeal without stay dates should fail")
	}
}

func TestMapRoomAndViewing(t *testing.T) {
	cols := DefaultColumns().With(map[string]string{"room.sqm": "numeric_custom"})
	it := Item{ID: "77", Name: "3.07", ColumnValues: []ColumnValue{
		cell(cols["room.floor"], "3"),
		cell(cols["room.category"], "Deluxe"),
		cell("numeric_custom", "18.5"),
		cell(cols["room.weekly_rate"], "£395"),
	}}
	r, ok := MapRoom(it, cols)
	if !ok {
		t.Fatal("MapRoom returned !ok")
	}
	if r.Sqm != 18.5 || r.WeeklyRate != 395 || r.Category != model.CategoryDeluxe {
		t.Fatalf("room = %+v", r)
	}
	if _, ok := MapRoom(Item{ID: "78"}, cols); ok {
		t.Fatal("MapRoom without name should be skipped")
	}

	lead := Item{ID: "9", Name: "Grace", ColumnValues: []ColumnValue{cell(cols["qualified.viewing_date"], "2025-08-20")}}
	v, ok := MapViewing(lead, cols["qualified.viewing_date"], "qualified")
	if !ok || v.Board != "qualified" || v.Date.Day() != 20 {
		t.Fatalf("viewing = %+v ok=%v", v, ok)
	}
	if _, ok := MapViewing(Item{Name: "NoDate"}, cols["qualified.viewing_date"], "qualified"); ok {
		t.Fatal("viewing without date should be skipped")
	}
}
