// Package state holds the in-memory roster: units, their equipment slots and
// the derived stat sheet. Nothing here is safe for concurrent mutation; the
// UI loop owns it.
package state

import (
	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/stats"
)

// SlotKind tags an equipment slot as backed by data or not.
type SlotKind int

const (
	// SlotUnknown is a slot the data source has not filled.
	SlotUnknown SlotKind = iota
	// SlotKnown is a slot with equipment data.
	SlotKnown
)

// EquipmentItem is the mutable per-slot state of a unit's equipment.
type EquipmentItem struct {
	kind         SlotKind
	data         model.Equipment
	equipped     bool
	enhanceLevel int
}

// NewEquipmentItem wraps fetched equipment data. A nil eq yields an unknown
// slot.
func NewEquipmentItem(eq *model.Equipment) *EquipmentItem {
	if eq == nil {
		return &EquipmentItem{kind: SlotUnknown}
	}
	return &EquipmentItem{kind: SlotKnown, data: *eq}
}

// Kind reports which variant the slot is.
func (e *EquipmentItem) Kind() SlotKind {
	return e.kind
}

// Equipment returns the backing data of a known slot.
func (e *EquipmentItem) Equipment() (model.Equipment, bool) {
	if e.kind != SlotKnown {
		return model.Equipment{}, false
	}
	return e.data, true
}

// ID returns the equipment id of a known slot.
func (e *EquipmentItem) ID() (int, bool) {
	if e.kind != SlotKnown {
		return 0, false
	}
	return e.data.ID, true
}

// Name returns the equipment name, or a placeholder for unknown slots.
func (e *EquipmentItem) Name() string {
	if e.kind != SlotKnown {
		return "(unknown)"
	}
	return e.data.Name
}

// Equipped reports whether the slot contributes to the unit. Unknown slots
// always report true.
func (e *EquipmentItem) Equipped() bool {
	switch e.kind {
	case SlotKnown:
		return e.equipped
	default:
		return true
	}
}

// EnhanceLevel returns the current enhancement level.
func (e *EquipmentItem) EnhanceLevel() int {
	switch e.kind {
	case SlotKnown:
		return e.enhanceLevel
	default:
		return 0
	}
}

// MaxEnhanceLevel returns the enhancement cap derived from the tier.
func (e *EquipmentItem) MaxEnhanceLevel() int {
	switch e.kind {
	case SlotKnown:
		return e.data.PromotionLevel.MaxEnhanceLevel()
	default:
		return 0
	}
}

// ToggleEquipped flips the equipped flag of a known slot.
func (e *EquipmentItem) ToggleEquipped() {
	if e.kind != SlotKnown {
		return
	}
	e.equipped = !e.equipped
}

// SetEquipped sets the equipped flag of a known slot.
func (e *EquipmentItem) SetEquipped(equipped bool) {
	if e.kind != SlotKnown {
		return
	}
	e.equipped = equipped
}

// SetEnhanceLevel clamps v into [0, MaxEnhanceLevel] and stores it.
func (e *EquipmentItem) SetEnhanceLevel(v int) {
	if e.kind != SlotKnown {
		return
	}
	e.enhanceLevel = clamp(v, 0, e.MaxEnhanceLevel())
}

// Stat returns the slot's contribution, or false when it contributes nothing.
func (e *EquipmentItem) Stat() (model.Stat, bool) {
	if e.kind != SlotKnown || !e.equipped {
		return model.Stat{}, false
	}
	return stats.CombineLinear([]stats.Term{
		{Stat: e.data.Stat, Coeff: 1},
		{Stat: e.data.GrowthRate, Coeff: float64(e.enhanceLevel)},
	}), true
}

// sameSlot reports whether two slots refer to the same equipment identity.
func (e *EquipmentItem) sameSlot(eq *model.Equipment) bool {
	if eq == nil {
		return e.kind == SlotUnknown
	}
	return e.kind == SlotKnown && e.data.ID == eq.ID
}

// AllEquipped reports whether every known slot is equipped.
func AllEquipped(items []*EquipmentItem) bool {
	for _, item := range items {
		if item.kind == SlotKnown && !item.equipped {
			return false
		}
	}
	return true
}

// AllEnhanced reports whether every known slot is at its enhancement cap.
func AllEnhanced(items []*EquipmentItem) bool {
	for _, item := range items {
		if item.kind == SlotKnown && item.enhanceLevel < item.MaxEnhanceLevel() {
			return false
		}
	}
	return true
}

// ToggleAllEquipped unequips every slot when all are equipped, otherwise
// equips every slot.
func ToggleAllEquipped(items []*EquipmentItem) {
	target := !AllEquipped(items)
	for _, item := range items {
		item.SetEquipped(target)
	}
}

// ToggleAllEnhanced resets every slot to 0 when all are at the cap, otherwise
// raises every slot to its cap.
func ToggleAllEnhanced(items []*EquipmentItem) {
	reset := AllEnhanced(items)
	for _, item := range items {
		if reset {
			item.SetEnhanceLevel(0)
		} else {
			item.SetEnhanceLevel(item.MaxEnhanceLevel())
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
