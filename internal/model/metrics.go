package model

// OccupancySummary is the headline occupancy view for one day.
type OccupancySummary struct {
	TotalRooms       int     `json:"total_rooms"`
	Occupied         int     `json:"occupied"`
	Vacant           int     `json:"vacant"`
	OccupancyRate    float64 `json:"occupancy_rate"`
	AsOf             string  `json:"as_of"`
	AvgWeeklyRent    float64 `json:"avg_weekly_rent"`
	TotalSignedValue float64 `json:"total_signed_value"`
	ContractCount    int     `json:"contract_count"`
}

// OccupancyPeriod holds movement and occupancy for one month or week.
// Month is set for monthly buckets, WeekStart/WeekEnd for weekly ones.
type OccupancyPeriod struct {
	Month          string `json:"month,omitempty"`
	WeekStart      string `json:"week_start,omitempty"`
	WeekEnd        string `json:"week_end,omitempty"`
	MoveIns        int    `json:"move_ins"`
	MoveOuts       int    `json:"move_outs"`
	NetChange      int    `json:"net_change"`
	StartOccupancy int    `json:"start_occupancy"`
	EndOccupancy   int    `json:"end_occupancy"`
}

// Key returns the period's month or week-start key.
func (p OccupancyPeriod) Key() string {
	if p.Month != "" {
		return p.Month
	}
	return p.WeekStart
}

// Vacancy is a room expected to fall empty within the forecast horizon.
type Vacancy struct {
	RoomID          string  `json:"room_id"`
	CurrentTenant   string  `json:"current_tenant"`
	VacatesOn       string  `json:"vacates_on"`
	DaysUntilVacant int     `json:"days_until_vacant"`
	WeeklyRate      float64 `json:"weekly_rate"`
	Status          string  `json:"status"`
}

// CashFlowPeriod holds one month of expected cash movement.
type CashFlowPeriod struct {
	Month           string  `json:"month"`
	Inflows         float64 `json:"inflows"`
	ExpectedInflows float64 `json:"expected_inflows"`
	Paid            float64 `json:"paid"`
	Outflows        float64 `json:"outflows"`
	NetCashflow     float64 `json:"net_cashflow"`
	RunningBalance  float64 `json:"running_balance"`
}

// WeeklyCashFlow holds expected inflows for one Monday-start week.
type WeeklyCashFlow struct {
	WeekStart       string  `json:"week_start"`
	WeekEnd         string  `json:"week_end"`
	ExpectedInflows float64 `json:"expected_inflows"`
	PaymentsDue     int     `json:"payments_due"`
}

// PaymentScheduleRow summarises scheduled payments due in one month.
type PaymentScheduleRow struct {
	Month         string  `json:"month"`
	NumPayments   int     `json:"num_payments"`
	TotalExpected float64 `json:"total_expected"`
	TotalPaid     float64 `json:"total_paid"`
	Outstanding   float64 `json:"outstanding"`
}

// CashSummary is the current month's collection position.
type CashSummary struct {
	Month           string  `json:"month"`
	ExpectedInflows float64 `json:"expected_inflows"`
	Paid            float64 `json:"paid"`
	Outstanding     float64 `json:"outstanding"`
	OverdueCount    int     `json:"overdue_count"`
	OverdueAmount   float64 `json:"overdue_amount"`
}

// ExpectedPayment is a scheduled payment joined with its contract.
type ExpectedPayment struct {
	ID           int64         `json:"id"`
	ContractID   int64         `json:"contract_id"`
	RoomID       string        `json:"room_id"`
	ResidentName string        `json:"resident_name"`
	DueDate      string        `json:"due_date"`
	Amount       float64       `json:"amount"`
	PaymentType  PaymentType   `json:"payment_type"`
	Status       PaymentStatus `json:"status"`
}

// OverduePayment is an unsettled payment past its due date.
type OverduePayment struct {
	ID           int64   `json:"id"`
	RoomID       string  `json:"room_id"`
	ResidentName string  `json:"resident_name"`
	DueDate      string  `json:"due_date"`
	Amount       float64 `json:"amount"`
	Outstanding  float64 `json:"outstanding"`
	DaysOverdue  int     `json:"days_overdue"`
}

// SignedContract is a contract listed in an activity window.
type SignedContract struct {
	Name       string  `json:"name"`
	SignDate   string  `json:"sign_date"`
	Unit       string  `json:"unit"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	Rate       float64 `json:"rate"`
	TotalValue float64 `json:"gross_income"`
}

// ContractWindow is the contracts signed within one rolling window.
type ContractWindow struct {
	Count     int              `json:"count"`
	Contracts []SignedContract `json:"contracts"`
}

// ActivityTotals holds all-time activity counts.
type ActivityTotals struct {
	TotalViewings  int `json:"total_viewings"`
	TotalContracts int `json:"total_contracts"`
}

// ActivitySummary holds viewing and signing counts per rolling window.
type ActivitySummary struct {
	Viewings  map[string]int            `json:"viewings"`
	Contracts map[string]ContractWindow `json:"contracts"`
	Totals    ActivityTotals            `json:"totals"`
}
