package pipeline

import (
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

func payment(t *testing.T, id, contractID int64, due string, amount float64, status model.PaymentStatus, paid float64) model.ScheduledPayment {
	t.Helper()
	return model.ScheduledPayment{
		ID:          id,
		ContractID:  contractID,
		DueDate:     mustDate(t, due),
		Amount:      amount,
		PaymentType: model.PaymentRent,
		Status:      status,
		PaidAmount:  paid,
	}
}

func TestAggregateCashFlow_RunningBalance(t *testing.T) {
	payments := []model.ScheduledPayment{
		payment(t, 1, 1, "2025-01-01", 1500, model.PaymentPaid, 0),
		payment(t, 2, 2, "2025-01-15", 500, model.PaymentPending, 0),
		payment(t, 3, 1, "2025-02-01", 1500, model.PaymentPartial, 700),
		payment(t, 4, 1, "2025-04-01", 1500, model.PaymentPending, 0),
		payment(t, 5, 1, "2024-12-01", 9999, model.PaymentPaid, 0), // outside range
	}
	opex := []model.OpexBudget{
		{Month: mustDate(t, "2025-01-01"), Category: "utilities", Amount: 800},
		{Month: mustDate(t, "2025-01-01"), Category: "staff", Amount: 400},
		{Month: mustDate(t, "2025-03-01"), Category: "staff", Amount: 400},
	}

	for _, opening := range []float64{0, 10000} {
		periods := AggregateCashFlow(payments, opex, mustDate(t, "2025-01-01"), mustDate(t, "2025-04-01"), opening)
		if len(periods) != 4 {
			t.Fatalf("len(periods) = %d, want 4", len(periods))
		}

		want := []struct {
			month    string
			in, out  float64
			net, bal float64
		}{
			{"2025-01", 2000, 1200, 800, opening + 800},
			{"2025-02", 1500, 0, 1500, opening + 2300},
			{"2025-03", 0, 400, -400, opening + 1900},
			{"2025-04", 1500, 0, 1500, opening + 3400},
		}
		for i, w := range want {
			p := periods[i]
			if p.Month != w.month {
				t.Fatalf("periods[%d].Month = %s, want %s", i, p.Month, w.month)
			}
			if p.Inflows != w.in || p.ExpectedInflows != w.in || p.Outflows != w.out {
				t.Fatalf("%s in/out = %.2f/%.2f, want %.2f/%.2f", p.Month, p.Inflows, p.Outflows, w.in, w.out)
			}
			if p.NetCashflow != w.net {
				t.Fatalf("%s NetCashflow = %.2f, want %.2f", p.Month, p.NetCashflow, w.net)
			}
			if p.RunningBalance != w.bal {
				t.Fatalf("%s RunningBalance = %.2f, want %.2f", p.Month, p.RunningBalance, w.bal)
			}
			prev := opening
			if i > 0 {
				prev = periods[i-1].RunningBalance
			}
			if p.RunningBalance != prev+p.NetCashflow {
				t.Fatalf("%s RunningBalance = %.2f, want prev %.2f + net %.2f", p.Month, p.RunningBalance, prev, p.NetCashflow)
			}
		}
		if periods[0].Paid != 1500 || periods[1].Paid != 700 {
			t.Fatalf("paid = %.2f/%.2f, want 1500/700", periods[0].Paid, periods[1].Paid)
		}
	}
}

func TestAggregateCashFlow_BalanceChainsExactly(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	var payments []model.ScheduledPayment
	var opex []model.OpexBudget
	for m := 0; m < 12; m++ {
		month := start.AddDate(0, m, 0)
		payments = append(payments, model.ScheduledPayment{
			ID:         int64(m + 1),
			ContractID: 1,
			DueDate:    month.AddDate(0, 0, 4),
			Amount:     1234.57 + float64(m)*0.11,
			Status:     model.PaymentPending,
		})
		opex = append(opex, model.OpexBudget{Month: month, Category: "utilities", Amount: 1111.13 + float64(m)*0.07})
	}

	opening := 1000.01
	periods := AggregateCashFlow(payments, opex, start, start.AddDate(0, 11, 0), opening)
	if len(periods) != 12 {
		t.Fatalf("len(periods) = %d, want 12", len(periods))
	}
	prev := opening
	for _, p := range periods {
		if p.RunningBalance != prev+p.NetCashflow {
			t.Errorf("%s RunningBalance = %v, want %v + %v", p.Month, p.RunningBalance, prev, p.NetCashflow)
		}
		prev = p.RunningBalance
	}
}

func TestPaymentSchedule_Outstanding(t *testing.T) {
	payments := []model.ScheduledPayment{
		payment(t, 1, 1, "2025-01-01", 1000, model.PaymentPaid, 0),
		payment(t, 2, 2, "2025-01-20", 500, model.PaymentPartial, 200),
		payment(t, 3, 3, "2025-03-01", 400, model.PaymentPaid, 450), // overpaid
	}

	rows := PaymentSchedule(payments, time.Time{}, time.Time{})
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 months with payments", len(rows))
	}
	jan, mar := rows[0], rows[1]
	if jan.Month != "2025-01" || jan.NumPayments != 2 {
		t.Fatalf("jan = %+v", jan)
	}
	if jan.TotalExpected != 1500 || jan.TotalPaid != 1200 || jan.Outstanding != 300 {
		t.Fatalf("jan totals = %+v, want 1500/1200/300", jan)
	}
	if mar.Outstanding != 0 {
		t.Fatalf("mar Outstanding = %.2f, want 0 when overpaid", mar.Outstanding)
	}
	for _, r := range rows {
		if r.Outstanding < 0 {
			t.Fatalf("%s Outstanding = %.2f, want >= 0", r.Month, r.Outstanding)
		}
	}
}

func TestPaymentSchedule_BoundedRangeFillsMonths(t *testing.T) {
	payments := []model.ScheduledPayment{
		payment(t, 1, 1, "2025-01-01", 1000, model.PaymentPending, 0),
		payment(t, 2, 1, "2025-06-01", 1000, model.PaymentPending, 0),
	}

	rows := PaymentSchedule(payments, mustDate(t, "2025-01-01"), mustDate(t, "2025-03-01"))
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[1].Month != "2025-02" || rows[1].NumPayments != 0 {
		t.Fatalf("rows[1] = %+v, want empty Feb", rows[1])
	}
}

func TestSummarizeCash(t *testing.T) {
	payments := []model.ScheduledPayment{
		payment(t, 1, 1, "2025-03-01", 1000, model.PaymentPaid, 0),
		payment(t, 2, 2, "2025-03-20", 600, model.PaymentPending, 0),
		payment(t, 3, 3, "2025-02-01", 800, model.PaymentPartial, 300),
		payment(t, 4, 3, "2025-02-15", 800, model.PaymentPaid, 0),
	}

	s := SummarizeCash(payments, mustDate(t, "2025-03-10"))
	if s.Month != "2025-03" {
		t.Fatalf("Month = %q, want 2025-03", s.Month)
	}
	if s.ExpectedInflows != 1600 || s.Paid != 1000 || s.Outstanding != 600 {
		t.Fatalf("summary = %+v, want 1600/1000/600", s)
	}
	if s.OverdueCount != 1 || s.OverdueAmount != 500 {
		t.Fatalf("overdue = %d/%.2f, want 1/500", s.OverdueCount, s.OverdueAmount)
	}
}

func TestExpectedAndOverduePayments(t *testing.T) {
	snap := model.Snapshot{
		Contracts: []model.Contract{
			{ID: 1, RoomID: "1.01", ResidentName: "Ada"},
			{ID: 2, RoomID: "2.02", ResidentName: "Grace"},
		},
		Payments: []model.ScheduledPayment{
			payment(t, 10, 2, "2025-04-01", 500, model.PaymentPending, 0),
			payment(t, 11, 1, "2025-03-01", 500, model.PaymentPending, 0),
			payment(t, 12, 1, "2025-02-01", 500, model.PaymentPaid, 0),
			payment(t, 13, 2, "2025-06-01", 500, model.PaymentPending, 0),
		},
	}
	today := mustDate(t, "2025-03-11")

	expected := ExpectedPayments(snap, mustDate(t, "2025-03-01"), mustDate(t, "2025-04-01"))
	if len(expected) != 2 {
		t.Fatalf("len(expected) = %d, want 2", len(expected))
	}
	if expected[0].ID != 11 || expected[0].ResidentName != "Ada" || expected[1].RoomID != "2.02" {
		t.Fatalf("expected = %+v", expected)
	}

	overdue := OverduePayments(snap, today)
	if len(overdue) != 1 {
		t.Fatalf("len(overdue) = %d, want 1", len(overdue))
	}
	if overdue[0].ID != 11 || overdue[0].DaysOverdue != 10 || overdue[0].Outstanding != 500 {
		t.Fatalf("overdue = %+v, want id 11, 10 days, 500 outstanding", overdue[0])
	}
}

func TestAggregateCashFlowWeekly(t *testing.T) {
	payments := []model.ScheduledPayment{
		payment(t, 1, 1, "2025-09-01", 1000, model.PaymentPending, 0),
		payment(t, 2, 2, "2025-09-07", 250.5, model.PaymentPending, 0),
		payment(t, 3, 2, "2025-09-15", 250.5, model.PaymentPending, 0),
	}

	weeks := AggregateCashFlowWeekly(payments, mustDate(t, "2025-09-03"), 3)
	if len(weeks) != 3 {
		t.Fatalf("len(weeks) = %d, want 3", len(weeks))
	}
	if weeks[0].WeekStart != "2025-09-01" || weeks[0].WeekEnd != "2025-09-07" {
		t.Fatalf("week 0 = %s..%s", weeks[0].WeekStart, weeks[0].WeekEnd)
	}
	if weeks[0].ExpectedInflows != 1250.5 || weeks[0].PaymentsDue != 2 {
		t.Fatalf("week 0 = %+v, want 1250.50 over 2 payments", weeks[0])
	}
	if weeks[1].PaymentsDue != 0 || weeks[2].PaymentsDue != 1 {
		t.Fatalf("weeks = %+v", weeks)
	}
}
