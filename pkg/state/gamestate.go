package state

import (
	"github.com/google/uuid"
)

// ImageQuality is the resolution tier requested from the image backend.
type ImageQuality string

const (
	Quality1K ImageQuality = "1K"
	Quality2K ImageQuality = "2K"
	Quality4K ImageQuality = "4K"
)

// DefaultQuest is the placeholder quest a session starts with.
const DefaultQuest = "Begin your adventure."

// Qualities lists the supported tiers in ascending resolution order.
func Qualities() []ImageQuality {
	return []ImageQuality{Quality1K, Quality2K, Quality4K}
}

// IsValid reports whether q is one of the supported tiers.
func (q ImageQuality) IsValid() bool {
	switch q {
	case Quality1K, Quality2K, Quality4K:
		return true
	}
	return false
}

// InventoryItem is a carried item. The ID is unique per item instance;
// uniqueness within an inventory is enforced by Name.
type InventoryItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GameState is the current state of an adventure session. It is created
// once at session start, mutated in place by ApplyDelta after each
// successful narrative response, and never persisted.
type GameState struct {
	Inventory    []InventoryItem `json:"inventory"`
	CurrentQuest string          `json:"current_quest"`
	ImageQuality ImageQuality    `json:"image_quality"`
}

func NewGameState() *GameState {
	return &GameState{
		Inventory:    make([]InventoryItem, 0),
		CurrentQuest: DefaultQuest,
		ImageQuality: Quality1K,
	}
}

// HasItem reports whether the inventory contains an item with the given
// name (case-sensitive exact match).
func (gs *GameState) HasItem(name string) bool {
	for _, item := range gs.Inventory {
		if item.Name == name {
			return true
		}
	}
	return false
}

// Copy returns a snapshot of the game state safe to hand to callers.
func (gs *GameState) Copy() GameState {
	out := *gs
	out.Inventory = make([]InventoryItem, len(gs.Inventory))
	copy(out.Inventory, gs.Inventory)
	return out
}
