package pipeline

import (
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

func mustDate(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

var nextContractID int64

func booking(t testing.TB, room, start, end string) model.Contract {
	t.Helper()
	nextContractID++
	return model.Contract{
		ID:           nextContractID,
		RoomID:       room,
		ResidentName: "Resident " + room,
		StartDate:    mustDate(t, start),
		EndDate:      mustDate(t, end),
		WeeklyRate:   350,
		Status:       model.StatusActive,
	}
}
