package model

import "time"

// PaymentPlan names how a contract's total value is collected.
type PaymentPlan string

const (
	PlanSinglePayment PaymentPlan = "Single Payment"
	PlanInstallments  PaymentPlan = "Installments"
	PlanStudentluxe   PaymentPlan = "Studentluxe"
	PlanSpecialTerms  PaymentPlan = "Special Payment Terms"
)

// PaymentType classifies a scheduled payment.
type PaymentType string

const (
	PaymentRent       PaymentType = "rent"
	PaymentAgentRemit PaymentType = "agent_remit"
	PaymentDeposit    PaymentType = "deposit"
)

// PaymentStatus is the collection state of a scheduled payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentPartial PaymentStatus = "partial"
)

// ScheduledPayment is one expected payment against a contract.
type ScheduledPayment struct {
	ID          int64
	ContractID  int64
	DueDate     time.Time
	Amount      float64
	PaymentType PaymentType
	Status      PaymentStatus
	PaidDate    time.Time
	PaidAmount  float64
}

// Paid returns the amount actually received.
// A payment marked paid without a recorded amount counts as paid in full.
func (p ScheduledPayment) Paid() float64 {
	if p.PaidAmount > 0 {
		return p.PaidAmount
	}
	if p.Status == PaymentPaid {
		return p.Amount
	}
	return 0
}

// Settled reports whether nothing remains to collect.
func (p ScheduledPayment) Settled() bool {
	return p.Status == PaymentPaid || p.Paid() >= p.Amount
}

// OpexBudget is one budgeted operating expense line for a month.
type OpexBudget struct {
	Month    time.Time
	Category string
	Amount   float64
}
