package pipeline

import "github.com/morehouse/mhouse/internal/model"

// agentRemitOffset is how far into the month an agent remits collected rent.
const agentRemitOffset = 14

// GenerateSchedule derives the expected payments for a contract from its
// payment plan. Unknown plans are collected as monthly instalments.
func GenerateSchedule(c model.Contract) []model.ScheduledPayment {
	if c.TotalValue <= 0 || c.EndDate.Before(c.StartDate) {
		return nil
	}

	switch c.PaymentPlan {
	case model.PlanSinglePayment:
		return []model.ScheduledPayment{{
			ContractID:  c.ID,
			DueDate:     model.Day(c.StartDate),
			Amount:      round2(c.TotalValue),
			PaymentType: model.PaymentRent,
			Status:      model.PaymentPending,
		}}
	case model.PlanSpecialTerms:
		return nil
	case model.PlanStudentluxe:
		return monthlySchedule(c, agentRemitOffset, model.PaymentAgentRemit)
	default:
		return monthlySchedule(c, 0, model.PaymentRent)
	}
}

// monthlySchedule spreads the contract value over every month the contract
// touches, due offsetDays after the 1st. The last instalment absorbs the
// rounding remainder so the schedule sums to the contract value.
func monthlySchedule(c model.Contract, offsetDays int, kind model.PaymentType) []model.ScheduledPayment {
	spans := monthSpans(c.StartDate, c.EndDate)
	n := len(spans)
	if n == 0 {
		return nil
	}

	instalment := round2(c.TotalValue / float64(n))
	payments := make([]model.ScheduledPayment, n)
	for i, s := range spans {
		amount := instalment
		if i == n-1 {
			amount = round2(c.TotalValue - instalment*float64(n-1))
		}
		payments[i] = model.ScheduledPayment{
			ContractID:  c.ID,
			DueDate:     s.start.AddDate(0, 0, offsetDays),
			Amount:      amount,
			PaymentType: kind,
			Status:      model.PaymentPending,
		}
	}
	return payments
}

// unscheduled returns the booked contracts that have no scheduled payments
// of their own.
func unscheduled(contracts []model.Contract, payments []model.ScheduledPayment) []model.Contract {
	scheduled := make(map[int64]struct{}, len(payments))
	for _, p := range payments {
		scheduled[p.ContractID] = struct{}{}
	}

	var out []model.Contract
	for _, c := range contracts {
		if _, ok := scheduled[c.ID]; !ok && c.Booked() {
			out = append(out, c)
		}
	}
	return out
}
