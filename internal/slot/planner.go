// Package slot derives the canonical slot table and player-info list from
// an abstract game description (spec.md §4.C). It is pure: no I/O, no
// goroutines, fully deterministic given its inputs — grounded on the
// teacher's stateless derivation helpers such as buildServerList in
// internal/login/handler.go.
package slot

import (
	"fmt"

	"github.com/udisondev/floclient/internal/model"
)

// Slot is one abstract slot the caller wants placed into the wire-level
// table: whether it's occupied, what it's occupied by (player id, or the
// stream observer), and the cosmetic fields the wire format carries
// through unchanged.
type Slot struct {
	Occupied     bool
	PlayerID     int32 // meaningless if !Occupied
	IsObserver   bool
	PlayerName   string
	Race         byte
	Color        byte
	Team         byte
	Handicap     byte
	DownloadDone bool
}

// Input is everything the planner needs (spec.md §4.C: "(my_player_id,
// random_seed, slots[])" — random_seed has no bearing on slot placement
// itself and is threaded through LanGameInfo.Game unchanged instead).
type Input struct {
	MyPlayerID int32
	Slots      []Slot
}

// Plan derives the canonical LanSlotInfo: occupied non-observer slots are
// numbered 1, 2, 3, ... in table order, skipping unoccupied slots (dense,
// one-based slot_player_id). The observer, if present, is recorded by its
// own index in in.Slots as StreamObSlot; Plan does not move it
// (spec.md §4.C).
func Plan(in Input) (model.LanSlotInfo, error) {
	var out model.LanSlotInfo
	out.Slots = make([]model.SlotEntry, len(in.Slots))

	var observerIdx *int
	nextSlotPlayerID := int32(1)
	myFound := false

	for i, s := range in.Slots {
		out.Slots[i] = model.SlotEntry{
			Occupied: s.Occupied,
			Race:     s.Race,
			Color:    s.Color,
			Team:     s.Team,
			Handicap: s.Handicap,
			Download: downloadStatus(s.DownloadDone, s.Occupied),
		}

		if !s.Occupied {
			continue
		}

		if s.IsObserver {
			idx := i
			observerIdx = &idx
			continue
		}

		slotPlayerID := nextSlotPlayerID
		nextSlotPlayerID++

		if s.PlayerID == in.MyPlayerID {
			out.MySlotPlayer = slotPlayerID
			myFound = true
			continue
		}

		out.PlayerInfos = append(out.PlayerInfos, model.SlotPlayerInfo{
			SlotPlayerID: slotPlayerID,
			Name:         s.PlayerName,
		})
	}

	if !myFound {
		return model.LanSlotInfo{}, fmt.Errorf("slot plan: my_player_id %d not found among occupied non-observer slots", in.MyPlayerID)
	}

	if observerIdx != nil {
		out.StreamObSlot = observerIdx
	}

	return out, nil
}
