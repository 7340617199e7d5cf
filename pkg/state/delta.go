package state

import "github.com/google/uuid"

// Delta is the compact set of changes extracted from a narrative
// response. A delta is much faster for the LLM to generate than a full
// game state.
type Delta struct {
	Add         []string `json:"add,omitempty"`
	Remove      []string `json:"remove,omitempty"`
	QuestUpdate string   `json:"quest_update,omitempty"`
}

// IsEmpty checks if the Delta is empty.
func (d *Delta) IsEmpty() bool {
	return d == nil || (len(d.Add) == 0 && len(d.Remove) == 0 && d.QuestUpdate == "")
}

// ApplyDelta mutates the game state with the given delta. Adds are
// applied before removes, so a name present in both lists ends up
// removed. Adds are idempotent: a name already in the inventory, or
// repeated within the same delta, produces no duplicate. Removes are
// set-based; removing an absent name is a no-op. The quest is replaced
// only when QuestUpdate is non-empty.
func (gs *GameState) ApplyDelta(d Delta) {
	for _, name := range d.Add {
		if gs.HasItem(name) {
			continue
		}
		gs.Inventory = append(gs.Inventory, InventoryItem{
			ID:   uuid.New(),
			Name: name,
		})
	}

	if len(d.Remove) > 0 {
		toRemove := make(map[string]struct{}, len(d.Remove))
		for _, name := range d.Remove {
			toRemove[name] = struct{}{}
		}
		kept := gs.Inventory[:0]
		for _, item := range gs.Inventory {
			if _, ok := toRemove[item.Name]; !ok {
				kept = append(kept, item)
			}
		}
		gs.Inventory = kept
	}

	if d.QuestUpdate != "" {
		gs.CurrentQuest = d.QuestUpdate
	}
}
