package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// AggregateCashFlow buckets scheduled payments and budgeted opex by month from
// startMonth through endMonth inclusive. The running balance starts at opening.
func AggregateCashFlow(payments []model.ScheduledPayment, opex []model.OpexBudget, startMonth, endMonth time.Time, opening float64) []model.CashFlowPeriod {
	spans := monthSpans(startMonth, endMonth)
	periods := make([]model.CashFlowPeriod, len(spans))
	index := make(map[string]int, len(spans))
	for i, s := range spans {
		key := s.start.Format(model.MonthLayout)
		periods[i].Month = key
		index[key] = i
	}

	for _, p := range payments {
		i, ok := index[p.DueDate.Format(model.MonthLayout)]
		if !ok {
			continue
		}
		periods[i].Inflows += p.Amount
		periods[i].Paid += p.Paid()
	}
	for _, o := range opex {
		i, ok := index[o.Month.Format(model.MonthLayout)]
		if !ok {
			continue
		}
		periods[i].Outflows += o.Amount
	}

	balance := opening
	for i := range periods {
		p := &periods[i]
		p.Inflows = round2(p.Inflows)
		p.Paid = round2(p.Paid)
		p.Outflows = round2(p.Outflows)
		p.ExpectedInflows = p.Inflows
		p.NetCashflow = round2(p.Inflows - p.Outflows)
		balance += p.NetCashflow
		p.RunningBalance = balance
	}
	return periods
}

// AggregateCashFlowWeekly sums expected inflows for n Monday-start weeks
// beginning with the week containing start.
func AggregateCashFlowWeekly(payments []model.ScheduledPayment, start time.Time, weeks int) []model.WeeklyCashFlow {
	spans := weekSpans(start, weeks)
	out := make([]model.WeeklyCashFlow, len(spans))
	for i, s := range spans {
		out[i] = model.WeeklyCashFlow{
			WeekStart: s.start.Format(model.DateLayout),
			WeekEnd:   s.end.AddDate(0, 0, -1).Format(model.DateLayout),
		}
		for _, p := range payments {
			if s.contains(p.DueDate) {
				out[i].ExpectedInflows += p.Amount
				out[i].PaymentsDue++
			}
		}
		out[i].ExpectedInflows = round2(out[i].ExpectedInflows)
	}
	return out
}

// PaymentSchedule summarises payments by due month. With a zero start or end
// only months that have payments are returned; otherwise every month in the
// range is present.
func PaymentSchedule(payments []model.ScheduledPayment, startMonth, endMonth time.Time) []model.PaymentScheduleRow {
	rows := make(map[string]*model.PaymentScheduleRow)
	bounded := !startMonth.IsZero() && !endMonth.IsZero()
	if bounded {
		for _, s := range monthSpans(startMonth, endMonth) {
			key := s.start.Format(model.MonthLayout)
			rows[key] = &model.PaymentScheduleRow{Month: key}
		}
	}

	for _, p := range payments {
		key := p.DueDate.Format(model.MonthLayout)
		row, ok := rows[key]
		if !ok {
			if bounded {
				continue
			}
			row = &model.PaymentScheduleRow{Month: key}
			rows[key] = row
		}
		row.NumPayments++
		row.TotalExpected += p.Amount
		row.TotalPaid += p.Paid()
	}

	out := make([]model.PaymentScheduleRow, 0, len(rows))
	for _, row := range rows {
		row.TotalExpected = round2(row.TotalExpected)
		row.TotalPaid = round2(row.TotalPaid)
		row.Outstanding = outstanding(row.TotalExpected, row.TotalPaid)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// SummarizeCash returns today's month collection position plus overdue totals.
func SummarizeCash(payments []model.ScheduledPayment, today time.Time) model.CashSummary {
	today = model.Day(today)
	month := MonthStart(today)
	s := span{start: month, end: month.AddDate(0, 1, 0)}

	summary := model.CashSummary{Month: month.Format(model.MonthLayout)}
	for _, p := range payments {
		if s.contains(p.DueDate) {
			summary.ExpectedInflows += p.Amount
			summary.Paid += p.Paid()
		}
		if isOverdue(p, today) {
			summary.OverdueCount++
			summary.OverdueAmount += outstanding(p.Amount, p.Paid())
		}
	}
	summary.ExpectedInflows = round2(summary.ExpectedInflows)
	summary.Paid = round2(summary.Paid)
	summary.Outstanding = outstanding(summary.ExpectedInflows, summary.Paid)
	summary.OverdueAmount = round2(summary.OverdueAmount)
	return summary
}

// ExpectedPayments lists payments due within [from, to] joined with their
// contracts, ordered by due date.
func ExpectedPayments(snap model.Snapshot, from, to time.Time) []model.ExpectedPayment {
	from, to = model.Day(from), model.Day(to)
	contracts := snap.ContractByID()

	out := make([]model.ExpectedPayment, 0)
	for _, p := range sortedByDue(snap.Payments) {
		due := model.Day(p.DueDate)
		if due.Before(from) || due.After(to) {
			continue
		}
		c := contracts[p.ContractID]
		out = append(out, model.ExpectedPayment{
			ID:           p.ID,
			ContractID:   p.ContractID,
			RoomID:       c.RoomID,
			ResidentName: c.ResidentName,
			DueDate:      due.Format(model.DateLayout),
			Amount:       p.Amount,
			PaymentType:  p.PaymentType,
			Status:       p.Status,
		})
	}
	return out
}

// OverduePayments lists unsettled payments due before today, oldest first.
func OverduePayments(snap model.Snapshot, today time.Time) []model.OverduePayment {
	today = model.Day(today)
	contracts := snap.ContractByID()

	out := make([]model.OverduePayment, 0)
	for _, p := range sortedByDue(snap.Payments) {
		if !isOverdue(p, today) {
			continue
		}
		c := contracts[p.ContractID]
		out = append(out, model.OverduePayment{
			ID:           p.ID,
			RoomID:       c.RoomID,
			ResidentName: c.ResidentName,
			DueDate:      model.Day(p.DueDate).Format(model.DateLayout),
			Amount:       p.Amount,
			Outstanding:  outstanding(p.Amount, p.Paid()),
			DaysOverdue:  model.DaysBetween(p.DueDate, today),
		})
	}
	return out
}

func isOverdue(p model.ScheduledPayment, today time.Time) bool {
	return !p.Settled() && model.Day(p.DueDate).Before(today)
}

func outstanding(expected, paid float64) float64 {
	return round2(math.Max(expected-paid, 0))
}

func sortedByDue(payments []model.ScheduledPayment) []model.ScheduledPayment {
	out := make([]model.ScheduledPayment, len(payments))
	copy(out, payments)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
