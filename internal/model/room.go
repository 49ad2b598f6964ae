package model

// RoomCategory is the marketed room tier.
type RoomCategory string

const (
	CategoryStandard        RoomCategory = "Standard"
	CategoryClassic         RoomCategory = "Classic"
	CategoryDeluxe          RoomCategory = "Deluxe"
	CategoryDeluxeMezzanine RoomCategory = "Deluxe Mezzanine"
)

// Room is one lettable unit in the building.
type Room struct {
	ID         string
	Floor      string
	Category   RoomCategory
	Sqm        float64
	WeeklyRate float64
	MondayID   string
}

// Room occupancy labels served by the rooms endpoint.
const (
	RoomOccupied = "Occupied"
	RoomVacant   = "Vacant"
)

// RoomState is a room with its occupancy relative to a given day.
type RoomState struct {
	RoomID        string       `json:"room_id"`
	Floor         string       `json:"floor"`
	Category      RoomCategory `json:"category"`
	Sqm           float64      `json:"sqm"`
	WeeklyRate    float64      `json:"weekly_rate"`
	Status        string       `json:"status"`
	CurrentTenant string       `json:"current_tenant,omitempty"`
	OccupiedUntil string       `json:"occupied_until,omitempty"`
}

// TimelineEntry is one booking on a room timeline.
type TimelineEntry struct {
	ContractID   int64          `json:"id"`
	ResidentName string         `json:"resident_name"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	WeeklyRate   float64        `json:"weekly_rate"`
	TotalValue   float64        `json:"total_value"`
	Status       TimelineStatus `json:"status"`
}

// RoomTimeline is a room with all of its bookings ordered by start date.
type RoomTimeline struct {
	RoomID    string          `json:"room_id"`
	Floor     string          `json:"floor"`
	Category  RoomCategory    `json:"category"`
	Sqm       float64         `json:"sqm"`
	Contracts []TimelineEntry `json:"contracts"`
}
