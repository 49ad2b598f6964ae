package pipeline

import (
	"errors"
	"testing"

	"github.com/morehouse/mhouse/internal/model"
)

func TestPlaceholderRooms(t *testing.T) {
	rooms := PlaceholderRooms(120)
	if len(rooms) != 120 {
		t.Fatalf("len = %d, want 120", len(rooms))
	}
	if rooms[0].ID != "1.01" || rooms[19].ID != "1.20" || rooms[20].ID != "2.01" || rooms[119].ID != "6.20" {
		t.Fatalf("ids = %s %s %s %s", rooms[0].ID, rooms[19].ID, rooms[20].ID, rooms[119].ID)
	}
}

func TestRoomStates(t *testing.T) {
	snap := model.Snapshot{
		Rooms: []model.Room{
			{ID: "2.01", Floor: "2", Category: model.CategoryDeluxe, Sqm: 18},
			{ID: "1.01", Floor: "1", Category: model.CategoryStandard, Sqm: 12},
		},
		Contracts: []model.Contract{
			booking(t, "2.01", "2025-01-01", "2025-06-30"),
			booking(t, "9.99", "2025-01-01", "2025-06-30"), // room missing from inventory
		},
	}

	states := RoomStates(snap, 120, mustDate(t, "2025-03-01"))
	if len(states) != 3 {
		t.Fatalf("len = %d, want 3", len(states))
	}
	if states[0].RoomID != "1.01" || states[0].Status != model.RoomVacant {
		t.Fatalf("states[0] = %+v, want vacant 1.01 first", states[0])
	}
	if states[1].RoomID != "2.01" || states[1].Status != model.RoomOccupied || states[1].CurrentTenant == "" {
		t.Fatalf("states[1] = %+v, want occupied 2.01", states[1])
	}
	if states[1].OccupiedUntil != "2025-06-30" {
		t.Fatalf("OccupiedUntil = %q, want 2025-06-30", states[1].OccupiedUntil)
	}
	if states[2].RoomID != "9.99" {
		t.Fatalf("states[2] = %+v, want contract-only room last", states[2])
	}
}

func TestTimelines(t *testing.T) {
	later := booking(t, "1.01", "2025-09-01", "2026-06-30")
	earlier := booking(t, "1.01", "2024-09-01", "2025-06-30")
	lost := booking(t, "1.01", "2025-07-01", "2025-08-30")
	lost.Status = model.StatusTerminated

	snap := model.Snapshot{
		Rooms:     []model.Room{{ID: "1.01", Floor: "1"}, {ID: "1.02", Floor: "1"}},
		Contracts: []model.Contract{later, earlier, lost},
	}

	tls := Timelines(snap, 120, mustDate(t, "2025-03-01"))
	if len(tls) != 2 {
		t.Fatalf("len = %d, want 2", len(tls))
	}
	tl := tls[0]
	if len(tl.Contracts) != 2 {
		t.Fatalf("1.01 contracts = %d, want 2 booked", len(tl.Contracts))
	}
	if tl.Contracts[0].Status != model.TimelineActive || tl.Contracts[1].Status != model.TimelineFuture {
		t.Fatalf("statuses = %s, %s; want active, future", tl.Contracts[0].Status, tl.Contracts[1].Status)
	}
	if tls[1].Contracts == nil {
		t.Fatal("empty room timeline has nil contracts")
	}
}

func TestRoomTimeline_NotFound(t *testing.T) {
	snap := model.Snapshot{Rooms: []model.Room{{ID: "1.01", Floor: "1"}}}
	_, err := RoomTimeline(snap, 120, "7.77", mustDate(t, "2025-03-01"))
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestAggregateCategories(t *testing.T) {
	snap := model.Snapshot{
		Rooms: []model.Room{
			{ID: "1.01", Floor: "1", Category: model.CategoryStandard},
			{ID: "1.02", Floor: "1", Category: model.CategoryStandard},
			{ID: "2.01", Floor: "2", Category: model.CategoryDeluxe},
		},
	}
	a := booking(t, "1.01", "2025-01-01", "2025-06-30")
	a.TotalValue = 1000
	b := booking(t, "2.01", "2025-01-01", "2025-06-30")
	b.TotalValue = 3000
	b.WeeklyRate = 500
	snap.Contracts = []model.Contract{a, b}

	cats := AggregateCategories(snap, 120, mustDate(t, "2025-03-01"))
	if len(cats) != 2 {
		t.Fatalf("len = %d, want 2", len(cats))
	}
	if cats[0].Category != model.CategoryDeluxe || cats[0].SharePercent != 75 {
		t.Fatalf("cats[0] = %+v, want Deluxe with 75%%", cats[0])
	}
	if cats[1].Rooms != 2 || cats[1].Occupied != 1 {
		t.Fatalf("cats[1] = %+v, want 2 rooms, 1 occupied", cats[1])
	}
}
