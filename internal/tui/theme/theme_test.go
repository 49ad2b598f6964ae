package theme

import "testing"

func TestByNameFallsBack(t *testing.T) {
	if got := ByName("more-house"); got.Name != "more-house" {
		t.Errorf("ByName(more-house) = %q", got.Name)
	}
	if got := ByName("nope"); got.Name != MoreHouse.Name {
		t.Errorf("ByName(nope) = %q, want default", got.Name)
	}
	if Valid("nope") || !Valid("terminal") {
		t.Error("Valid disagrees with All")
	}
	if len(Names()) != len(All) {
		t.Errorf("Names() = %v", Names())
	}
}

func TestSemanticColors(t *testing.T) {
	th := MoreHouse
	if th.RoomStatus("Vacant") != th.Orange || th.RoomStatus("Occupied") != th.Green {
		t.Error("room status colors")
	}
	if th.SyncState("error") != th.Red || th.SyncState("idle") != th.TextMuted {
		t.Error("sync state colors")
	}
	if th.Balance(-1) != th.Red || th.Balance(0) != th.TextPrimary || th.Balance(5) != th.Green {
		t.Error("balance colors")
	}
}
