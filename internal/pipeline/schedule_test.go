package pipeline

import (
	"math"
	"testing"

	"github.com/morehouse/mhouse/internal/model"
)

func contractWithPlan(t *testing.T, plan model.PaymentPlan, start, end string, total float64) model.Contract {
	t.Helper()
	c := booking(t, "4.12", start, end)
	c.PaymentPlan = plan
	c.TotalValue = total
	return c
}

func sumAmounts(payments []model.ScheduledPayment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return math.Round(total*100) / 100
}

func TestGenerateSchedule_SinglePayment(t *testing.T) {
	c := contractWithPlan(t, model.PlanSinglePayment, "2025-09-13", "2026-06-27", 17640)

	got := GenerateSchedule(c)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	p := got[0]
	if p.DueDate.Format(model.DateLayout) != "2025-09-13" || p.Amount != 17640 {
		t.Fatalf("payment = %+v, want 17640 due 2025-09-13", p)
	}
	if p.PaymentType != model.PaymentRent || p.Status != model.PaymentPending || p.ContractID != c.ID {
		t.Fatalf("payment = %+v", p)
	}
}

func TestGenerateSchedule_Installments(t *testing.T) {
	c := contractWithPlan(t, model.PlanInstallments, "2025-09-13", "2026-06-27", 10000)

	got := GenerateSchedule(c)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10 monthly instalments (Sep..Jun)", len(got))
	}
	if got[0].DueDate.Format(model.DateLayout) != "2025-09-01" {
		t.Fatalf("first due = %s, want 2025-09-01", got[0].DueDate.Format(model.DateLayout))
	}
	if got[9].DueDate.Format(model.DateLayout) != "2026-06-01" {
		t.Fatalf("last due = %s, want 2026-06-01", got[9].DueDate.Format(model.DateLayout))
	}
	for _, p := range got {
		if p.Amount != 1000 {
			t.Fatalf("instalment = %.2f, want 1000", p.Amount)
		}
	}
}

func TestGenerateSchedule_RemainderOnLastInstalment(t *testing.T) {
	c := contractWithPlan(t, model.PlanInstallments, "2025-01-01", "2025-03-31", 1000)

	got := GenerateSchedule(c)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Amount != 333.33 || got[2].Amount != 333.34 {
		t.Fatalf("amounts = %.2f..%.2f, want 333.33..333.34", got[0].Amount, got[2].Amount)
	}
	if total := sumAmounts(got); total != 1000 {
		t.Fatalf("schedule total = %.2f, want 1000", total)
	}
}

func TestGenerateSchedule_Studentluxe(t *testing.T) {
	c := contractWithPlan(t, model.PlanStudentluxe, "2025-09-01", "2025-11-30", 3000)

	got := GenerateSchedule(c)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"2025-09-15", "2025-10-15", "2025-11-15"} {
		if d := got[i].DueDate.Format(model.DateLayout); d != want {
			t.Fatalf("due[%d] = %s, want %s", i, d, want)
		}
		if got[i].PaymentType != model.PaymentAgentRemit {
			t.Fatalf("type = %s, want agent_remit", got[i].PaymentType)
		}
	}
}

func TestGenerateSchedule_NoPayments(t *testing.T) {
	tests := []struct {
		name string
		c    model.Contract
	}{
		{"special terms", contractWithPlan(t, model.PlanSpecialTerms, "2025-09-01", "2026-06-30", 9000)},
		{"zero value", contractWithPlan(t, model.PlanInstallments, "2025-09-01", "2026-06-30", 0)},
		{"end before start", contractWithPlan(t, model.PlanInstallments, "2026-09-01", "2025-06-30", 9000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSchedule(tt.c); len(got) != 0 {
				t.Fatalf("GenerateSchedule = %+v, want none", got)
			}
		})
	}
}

func TestGenerateSchedule_UnknownPlanIsMonthly(t *testing.T) {
	c := contractWithPlan(t, "Unknown", "2025-01-20", "2025-02-10", 800)

	got := GenerateSchedule(c)
	if len(got) != 2 || got[0].Amount != 400 || got[0].PaymentType != model.PaymentRent {
		t.Fatalf("GenerateSchedule = %+v, want two 400 rent instalments", got)
	}
}

func TestComplete_KeepsStoredPayments(t *testing.T) {
	stored := contractWithPlan(t, model.PlanSinglePayment, "2025-01-01", "2025-06-30", 5000)
	missing := contractWithPlan(t, model.PlanSinglePayment, "2025-02-01", "2025-06-30", 4000)
	prospect := contractWithPlan(t, model.PlanSinglePayment, "2025-02-01", "2025-06-30", 4000)
	prospect.Status = model.StatusProspect

	snap := model.Snapshot{
		Contracts: []model.Contract{stored, missing, prospect},
		Payments:  []model.ScheduledPayment{{ContractID: stored.ID, Amount: 2500, DueDate: stored.StartDate}},
	}
	res := complete(snap, nil)
	got := res.Snapshot.Payments
	if len(got) != 2 {
		t.Fatalf("len = %d, want stored + one generated", len(got))
	}
	if got[0].Amount != 2500 || got[1].ContractID != missing.ID {
		t.Fatalf("payments = %+v", got)
	}
	if res.StoredPayments != 1 || res.GeneratedContracts != 1 || res.GeneratedPayments != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", res.StoredPayments, res.GeneratedContracts, res.GeneratedPayments)
	}
}
