// Package model defines domain types for mhouse rooms, contracts and payments.
package model

import "time"

// Date layouts used in period keys and API payloads.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Day truncates t to its calendar day at midnight UTC.
// All contract and payment dates are stored as days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day.
func Today() time.Time {
	return Day(time.Now())
}

// DaysBetween returns the whole calendar days from a to b.
// Time of day is discarded, so the result is the floor of the elapsed days.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// ContractStatus is the CRM lifecycle stage of a contract.
type ContractStatus string

const (
	StatusProspect        ContractStatus = "prospect"
	StatusUnderDiscussion ContractStatus = "under_discussion"
	StatusSigned          ContractStatus = "signed"
	StatusActive          ContractStatus = "active"
	StatusEnding          ContractStatus = "ending"
	StatusTerminated      ContractStatus = "terminated"
	StatusCompleted       ContractStatus = "completed"
)

// TimelineStatus is a contract's position relative to a reference day.
type TimelineStatus string

const (
	TimelineFuture TimelineStatus = "future"
	TimelineActive TimelineStatus = "active"
	TimelinePast   TimelineStatus = "past"
)

// Contract is a resident's booking of one room.
type Contract struct {
	ID           int64
	MondayID     string
	RoomID       string
	ResidentName string
	StartDate    time.Time
	EndDate      time.Time
	SignedDate   time.Time
	WeeklyRate   float64
	TotalValue   float64
	WeeksBooked  float64
	PaymentPlan  PaymentPlan
	Status       ContractStatus
	Nationality  string
	University   string
	Source       string
}

// Booked reports whether the contract holds its room.
// Prospects, open discussions and terminated contracts never occupy a room.
func (c Contract) Booked() bool {
	switch c.Status {
	case StatusSigned, StatusActive, StatusEnding, StatusCompleted:
		return true
	}
	return false
}

// ActiveOn reports whether day falls within [StartDate, EndDate].
func (c Contract) ActiveOn(day time.Time) bool {
	day = Day(day)
	return !day.Before(Day(c.StartDate)) && !day.After(Day(c.EndDate))
}

// TimelineStatusAt derives future/active/past relative to now.
func (c Contract) TimelineStatusAt(now time.Time) TimelineStatus {
	now = Day(now)
	switch {
	case Day(c.StartDate).After(now):
		return TimelineFuture
	case Day(c.EndDate).Before(now):
		return TimelinePast
	default:
		return TimelineActive
	}
}
