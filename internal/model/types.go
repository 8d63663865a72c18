package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownPromotionLevel is returned when decoding an unrecognised tier.
var ErrUnknownPromotionLevel = errors.New("unknown promotion level")

// PromotionLevel is the ordered equipment quality tier.
type PromotionLevel int

// Promotion tiers from lowest to highest.
const (
	PromotionBlue PromotionLevel = iota
	PromotionBronze
	PromotionSilver
	PromotionGold
	PromotionPurple
)

var promotionNames = []string{"BLUE", "BRONZE", "SILVER", "GOLD", "PURPLE"}

// String implements fmt.Stringer.
func (p PromotionLevel) String() string {
	if p < 0 || int(p) >= len(promotionNames) {
		return fmt.Sprintf("PromotionLevel(%d)", int(p))
	}
	return promotionNames[p]
}

// MaxEnhanceLevel returns the highest enhancement an item of this tier
// accepts.
func (p PromotionLevel) MaxEnhanceLevel() int {
	switch p {
	case PromotionBronze:
		return 1
	case PromotionSilver:
		return 3
	case PromotionGold, PromotionPurple:
		return 5
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PromotionLevel) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(promotionNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPromotionLevel, int(p))
	}
	return []byte(promotionNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PromotionLevel) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, n := range promotionNames {
		if n == name {
			*p = PromotionLevel(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPromotionLevel, string(text))
}

// Equipment is immutable reference data for one piece of equipment.
type Equipment struct {
	ID             int            `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	PromotionLevel PromotionLevel `json:"promotionLevel" yaml:"promotionLevel"`
	RequiredLevel  int            `json:"requiredLevel" yaml:"requiredLevel"`
	Stat           Stat           `json:"stat" yaml:"stat"`
	GrowthRate     Stat           `json:"growthRate" yaml:"growthRate"`
}

// BasicCharacterInfo identifies a character and its minimum rarity.
type BasicCharacterInfo struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Rarity int    `json:"rarity" yaml:"rarity"`
}

// CharacterStat holds the base and per-level growth stats of a character.
type CharacterStat struct {
	Base       Stat `json:"base" yaml:"base"`
	GrowthRate Stat `json:"growthRate" yaml:"growthRate"`
}

// CharacterUnit is the full stat data for one (name, rarity, rank) query.
// A nil entry in Equipments is a slot the data source has not filled.
type CharacterUnit struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Stat       CharacterStat `json:"stat"`
	StatByRank *Stat         `json:"statByRank"`
	Equipments []*Equipment  `json:"equipments"`
}

// CharacterStatOptions is the query key for character stat data.
type CharacterStatOptions struct {
	Name   string `json:"name"`
	Rarity int    `json:"rarity"`
	Rank   int    `json:"rank"`
}

// Snapshot captures a roster for persistence.
type Snapshot struct {
	Units []UnitSnapshot
}

// UnitSnapshot captures one unit's options and equipment state.
type UnitSnapshot struct {
	Name      string
	Rarity    int
	Rank      int
	Level     int
	Equipment []EquipmentSnapshot
}

// EquipmentSnapshot captures one known equipment slot.
type EquipmentSnapshot struct {
	Slot         int
	EquipmentID  int
	Equipped     bool
	EnhanceLevel int
}

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	Name    string
	SavedAt time.Time
	Units   int
}

// Config defines resolved runtime settings.
type Config struct {
	Endpoint        string
	Fixture         string
	Timeout         time.Duration
	CacheEnabled    bool
	CacheTTL        time.Duration
	LookupCacheSize int
	SnapshotName    string
	Autosave        bool
}
