package pipeline

import (
	"strings"

	"github.com/morehouse/mhouse/internal/model"
)

// FilterByRoom returns contracts for rooms whose ID contains the substring.
func FilterByRoom(contracts []model.Contract, room string) []model.Contract {
	var result []model.Contract
	for _, c := range contracts {
		if containsIgnoreCase(c.RoomID, room) {
			result = append(result, c)
		}
	}
	return result
}

// FilterByResident returns contracts whose resident name contains the substring.
func FilterByResident(contracts []model.Contract, name string) []model.Contract {
	var result []model.Contract
	for _, c := range contracts {
		if containsIgnoreCase(c.ResidentName, name) {
			result = append(result, c)
		}
	}
	return result
}

// FilterByFloor returns contracts in rooms on the given floor.
func FilterByFloor(contracts []model.Contract, rooms []model.Room, floor string) []model.Contract {
	onFloor := make(map[string]struct{})
	for _, r := range rooms {
		if strings.EqualFold(strings.TrimSpace(r.Floor), strings.TrimSpace(floor)) {
			onFloor[r.ID] = struct{}{}
		}
	}
	var result []model.Contract
	for _, c := range contracts {
		if _, ok := onFloor[c.RoomID]; ok {
			result = append(result, c)
		}
	}
	return result
}

// containsIgnoreCase reports whether substr is in s, case-insensitive.
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
