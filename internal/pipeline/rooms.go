package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// ErrRoomNotFound is returned when a room ID is not in the snapshot.
var ErrRoomNotFound = errors.New("room not found")

// PlaceholderRooms synthesises floor.number rooms (floors 1-6, 01-20) up to
// capacity. Used when no room inventory has been loaded.
func PlaceholderRooms(capacity int) []model.Room {
	rooms := make([]model.Room, 0, capacity)
	for floor := 1; len(rooms) < capacity; floor++ {
		for n := 1; n <= 20 && len(rooms) < capacity; n++ {
			rooms = append(rooms, model.Room{
				ID:       fmt.Sprintf("%d.%02d", floor, n),
				Floor:    strconv.Itoa(floor),
				Category: model.CategoryStandard,
			})
		}
	}
	return rooms
}

// RoomsOf returns the snapshot rooms, or placeholders when there are none.
// Rooms referenced only by contracts are appended so no booking is dropped.
func RoomsOf(snap model.Snapshot, capacity int) []model.Room {
	rooms := snap.Rooms
	if len(rooms) == 0 {
		rooms = PlaceholderRooms(capacity)
	}

	known := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		known[r.ID] = struct{}{}
	}
	out := make([]model.Room, len(rooms))
	copy(out, rooms)
	for _, c := range snap.Contracts {
		if _, ok := known[c.RoomID]; ok || c.RoomID == "" {
			continue
		}
		known[c.RoomID] = struct{}{}
		out = append(out, model.Room{ID: c.RoomID})
	}

	sort.SliceStable(out, func(i, j int) bool { return roomLess(out[i], out[j]) })
	return out
}

// RoomStates reports every room as occupied or vacant on today.
func RoomStates(snap model.Snapshot, capacity int, today time.Time) []model.RoomState {
	today = model.Day(today)
	current := make(map[string]model.Contract)
	for _, c := range snap.Contracts {
		if c.Booked() && c.ActiveOn(today) {
			current[c.RoomID] = c
		}
	}

	rooms := RoomsOf(snap, capacity)
	states := make([]model.RoomState, 0, len(rooms))
	for _, r := range rooms {
		st := model.RoomState{
			RoomID:     r.ID,
			Floor:      r.Floor,
			Category:   r.Category,
			Sqm:        r.Sqm,
			WeeklyRate: r.WeeklyRate,
			Status:     model.RoomVacant,
		}
		if c, ok := current[r.ID]; ok {
			st.Status = model.RoomOccupied
			st.CurrentTenant = c.ResidentName
			st.OccupiedUntil = model.Day(c.EndDate).Format(model.DateLayout)
		}
		states = append(states, st)
	}
	return states
}

// Timelines returns each room with its booked contracts ordered by start.
func Timelines(snap model.Snapshot, capacity int, today time.Time) []model.RoomTimeline {
	byRoom := make(map[string][]model.Contract)
	for _, c := range snap.Contracts {
		if c.Booked() {
			byRoom[c.RoomID] = append(byRoom[c.RoomID], c)
		}
	}

	rooms := RoomsOf(snap, capacity)
	out := make([]model.RoomTimeline, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, timelineFor(r, byRoom[r.ID], today))
	}
	return out
}

// RoomTimeline returns one room's timeline.
func RoomTimeline(snap model.Snapshot, capacity int, roomID string, today time.Time) (model.RoomTimeline, error) {
	for _, r := range RoomsOf(snap, capacity) {
		if r.ID != roomID {
			continue
		}
		var contracts []model.Contract
		for _, c := range snap.Contracts {
			if c.RoomID == roomID && c.Booked() {
				contracts = append(contracts, c)
			}
		}
		return timelineFor(r, contracts, today), nil
	}
	return model.RoomTimeline{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
}

func timelineFor(r model.Room, contracts []model.Contract, today time.Time) model.RoomTimeline {
	sorted := make([]model.Contract, len(contracts))
	copy(sorted, contracts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	tl := model.RoomTimeline{
		RoomID:    r.ID,
		Floor:     r.Floor,
		Category:  r.Category,
		Sqm:       r.Sqm,
		Contracts: make([]model.TimelineEntry, 0, len(sorted)),
	}
	for _, c := range sorted {
		tl.Contracts = append(tl.Contracts, model.TimelineEntry{
			ContractID:   c.ID,
			ResidentName: c.ResidentName,
			StartDate:    model.Day(c.StartDate).Format(model.DateLayout),
			EndDate:      model.Day(c.EndDate).Format(model.DateLayout),
			WeeklyRate:   c.WeeklyRate,
			TotalValue:   c.TotalValue,
			Status:       c.TimelineStatusAt(today),
		})
	}
	return tl
}

// roomLess orders rooms by numeric floor then ID, with non-numeric floors last.
func roomLess(a, b model.Room) bool {
	fa, errA := strconv.Atoi(strings.TrimSpace(a.Floor))
	fb, errB := strconv.Atoi(strings.TrimSpace(b.Floor))
	switch {
	case errA == nil && errB == nil && fa != fb:
		return fa < fb
	case errA == nil && errB != nil:
		return true
	case errA != nil && errB == nil:
		return false
	}
	return a.ID < b.ID
}
