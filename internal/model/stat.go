// Package model defines shared data structures.
package model

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// StatField indexes one attribute of a Stat.
type StatField int

// Stat fields in canonical order.
const (
	HP StatField = iota
	Atk
	MagicStr
	Def
	MagicDef
	PhysicalCritical
	MagicCritical
	WaveHPRecovery
	WaveEnergyRecovery
	Dodge
	LifeSteal
	HPRecoveryRate
	EnergyRecoveryRate
	EnergyReduceRate
	Accuracy

	StatFieldCount
)

var statFieldKeys = [StatFieldCount]string{
	HP:                 "hp",
	Atk:                "atk",
	MagicStr:           "magicStr",
	Def:                "def",
	MagicDef:           "magicDef",
	PhysicalCritical:   "physicalCritical",
	MagicCritical:      "magicCritical",
	WaveHPRecovery:     "waveHpRecovery",
	WaveEnergyRecovery: "waveEnergyRecovery",
	Dodge:              "dodge",
	LifeSteal:          "lifeSteal",
	HPRecoveryRate:     "hpRecoveryRate",
	EnergyRecoveryRate: "energyRecoveryRate",
	EnergyReduceRate:   "energyReduceRate",
	Accuracy:           "accuracy",
}

// Key returns the wire name of the field.
func (f StatField) Key() string {
	if f < 0 || f >= StatFieldCount {
		return fmt.Sprintf("StatField(%d)", int(f))
	}
	return statFieldKeys[f]
}

// String implements fmt.Stringer.
func (f StatField) String() string {
	return f.Key()
}

// ParseStatField resolves a wire name to its field.
func ParseStatField(key string) (StatField, bool) {
	for i, k := range statFieldKeys {
		if k == key {
			return StatField(i), true
		}
	}
	return 0, false
}

// StatFields lists every field in canonical order.
func StatFields() []StatField {
	fields := make([]StatField, StatFieldCount)
	for i := range fields {
		fields[i] = StatField(i)
	}
	return fields
}

// Stat is a fixed vector of combat attributes. The array shape keeps the
// field set identical across every value.
type Stat [StatFieldCount]float64

// Get returns the value of a field.
func (s Stat) Get(f StatField) float64 {
	return s[f]
}

// MarshalJSON writes the stat as an object keyed by wire names, in
// canonical order.
func (s Stat) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 16*int(StatFieldCount))
	buf = append(buf, '{')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, statFieldKeys[i])
		buf = append(buf, ':')
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON reads an object keyed by wire names. Unknown keys are ignored
// and missing or null values decode as zero.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode stat: %w", err)
	}
	s.fill(raw)
	return nil
}

// UnmarshalYAML reads a mapping keyed by wire names.
func (s *Stat) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]*float64
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode stat: %w", err)
	}
	s.fill(raw)
	return nil
}

func (s *Stat) fill(raw map[string]*float64) {
	*s = Stat{}
	for key, v := range raw {
		f, ok := ParseStatField(key)
		if !ok || v == nil {
			continue
		}
		s[f] = *v
	}
}
