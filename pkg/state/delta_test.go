package state

import (
	"testing"

	"github.com/google/uuid"
)

func names(inv []InventoryItem) []string {
	out := make([]string, 0, len(inv))
	for _, item := range inv {
		out = append(out, item.Name)
	}
	return out
}

func TestGameState_ApplyDelta(t *testing.T) {
	tests := []struct {
		name          string
		inventory     []string
		delta         Delta
		wantInventory []string
		wantQuest     string
	}{
		{
			name:          "add to empty inventory",
			inventory:     nil,
			delta:         Delta{Add: []string{"torch"}},
			wantInventory: []string{"torch"},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "duplicate add is a no-op",
			inventory:     []string{"torch"},
			delta:         Delta{Add: []string{"torch"}},
			wantInventory: []string{"torch"},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "duplicate add within one delta",
			inventory:     nil,
			delta:         Delta{Add: []string{"rope", "rope"}},
			wantInventory: []string{"rope"},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "remove absent item is a no-op",
			inventory:     []string{"key"},
			delta:         Delta{Remove: []string{"key", "sword"}},
			wantInventory: []string{},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "remove wins when name is in both lists",
			inventory:     nil,
			delta:         Delta{Add: []string{"cursed amulet"}, Remove: []string{"cursed amulet"}},
			wantInventory: []string{},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "add is case-sensitive",
			inventory:     []string{"Torch"},
			delta:         Delta{Add: []string{"torch"}},
			wantInventory: []string{"Torch", "torch"},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "remove deletes all matching names",
			inventory:     []string{"coin", "map", "coin"},
			delta:         Delta{Remove: []string{"coin"}},
			wantInventory: []string{"map"},
			wantQuest:     DefaultQuest,
		},
		{
			name:          "quest update replaces current quest",
			inventory:     nil,
			delta:         Delta{QuestUpdate: "Find the sunken bell."},
			wantInventory: []string{},
			wantQuest:     "Find the sunken bell.",
		},
		{
			name:          "empty quest update preserves current quest",
			inventory:     nil,
			delta:         Delta{Add: []string{"lantern"}},
			wantInventory: []string{"lantern"},
			wantQuest:     DefaultQuest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGameState()
			for _, name := range tt.inventory {
				gs.Inventory = append(gs.Inventory, InventoryItem{ID: uuid.New(), Name: name})
			}

			gs.ApplyDelta(tt.delta)

			got := names(gs.Inventory)
			if len(got) != len(tt.wantInventory) {
				t.Fatalf("inventory = %v, want %v", got, tt.wantInventory)
			}
			for i := range got {
				if got[i] != tt.wantInventory[i] {
					t.Errorf("inventory[%d] = %q, want %q", i, got[i], tt.wantInventory[i])
				}
			}
			if gs.CurrentQuest != tt.wantQuest {
				t.Errorf("CurrentQuest = %q, want %q", gs.CurrentQuest, tt.wantQuest)
			}
		})
	}
}

func TestGameState_ApplyDelta_Idempotent(t *testing.T) {
	gs := NewGameState()
	delta := Delta{Add: []string{"torch", "rope"}}

	gs.ApplyDelta(delta)
	gs.ApplyDelta(delta)

	if len(gs.Inventory) != 2 {
		t.Fatalf("expected 2 items after repeated apply, got %d: %v", len(gs.Inventory), names(gs.Inventory))
	}
}

func TestGameState_ApplyDelta_FreshIDs(t *testing.T) {
	gs := NewGameState()
	gs.ApplyDelta(Delta{Add: []string{"torch", "rope"}})

	seen := make(map[uuid.UUID]bool)
	for _, item := range gs.Inventory {
		if item.ID == uuid.Nil {
			t.Errorf("item %q has nil ID", item.Name)
		}
		if seen[item.ID] {
			t.Errorf("item %q shares an ID with another item", item.Name)
		}
		seen[item.ID] = true
	}
}

func TestDelta_IsEmpty(t *testing.T) {
	var nilDelta *Delta
	if !nilDelta.IsEmpty() {
		t.Error("nil delta should be empty")
	}
	if !(&Delta{}).IsEmpty() {
		t.Error("zero delta should be empty")
	}
	if (&Delta{Add: []string{"x"}}).IsEmpty() {
		t.Error("delta with adds should not be empty")
	}
	if (&Delta{QuestUpdate: "q"}).IsEmpty() {
		t.Error("delta with quest update should not be empty")
	}
}
