package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/statsheet/internal/model"
)

// Fixture serves character data from a YAML file loaded into memory.
type Fixture struct {
	source     string
	characters []fixtureCharacter
}

type fixtureFile struct {
	Characters []fixtureCharacter `yaml:"characters"`
}

type fixtureCharacter struct {
	ID     int                         `yaml:"id"`
	Name   string                      `yaml:"name"`
	Rarity int                         `yaml:"rarity"`
	Stats  map[int]model.CharacterStat `yaml:"stats"`
	Ranks  map[int]fixtureRank         `yaml:"ranks"`
}

type fixtureRank struct {
	StatByRank *model.Stat        `yaml:"statByRank"`
	Equipments []*model.Equipment `yaml:"equipments"`
}

// LoadFixture reads a fixture file from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fixture, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	fixture.source = "fixture:" + path + "@" + contentHash(data)
	return fixture, nil
}

// ParseFixture decodes fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	for i, c := range file.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("character %d has no name", i)
		}
	}
	return &Fixture{source: "fixture:@" + contentHash(data), characters: file.Characters}, nil
}

// Source identifies the fixture by path and content.
func (f *Fixture) Source() string {
	return f.source
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// GetBasicCharacterInfo implements Transport.
func (f *Fixture) GetBasicCharacterInfo(_ context.Context, name string) (*model.BasicCharacterInfo, error) {
	c := f.find(name)
	if c == nil {
		return nil, nil
	}
	return &model.BasicCharacterInfo{ID: c.ID, Name: c.Name, Rarity: c.Rarity}, nil
}

// GetCharacterStat implements Transport. Rarities without their own entry use
// the highest listed rarity below them; ranks without an entry have no rank
// bonus and no equipment.
func (f *Fixture) GetCharacterStat(_ context.Context, opts model.CharacterStatOptions) (*model.CharacterUnit, error) {
	c := f.find(opts.Name)
	if c == nil {
		return nil, nil
	}
	stat, ok := c.statFor(opts.Rarity)
	if !ok {
		return nil, nil
	}
	unit := &model.CharacterUnit{
		ID:         c.ID,
		Name:       c.Name,
		Stat:       stat,
		Equipments: []*model.Equipment{},
	}
	if rank, ok := c.Ranks[opts.Rank]; ok {
		if rank.StatByRank != nil {
			s := *rank.StatByRank
			unit.StatByRank = &s
		}
		for _, eq := range rank.Equipments {
			if eq == nil {
				unit.Equipments = append(unit.Equipments, nil)
				continue
			}
			e := *eq
			unit.Equipments = append(unit.Equipments, &e)
		}
	}
	return unit, nil
}

func (f *Fixture) find(name string) *fixtureCharacter {
	name = strings.TrimSpace(name)
	for i := range f.characters {
		if strings.EqualFold(f.characters[i].Name, name) {
			return &f.characters[i]
		}
	}
	return nil
}

func (c *fixtureCharacter) statFor(rarity int) (model.CharacterStat, bool) {
	best := -1
	for r := range c.Stats {
		if r <= rarity && r > best {
			best = r
		}
	}
	if best < 0 {
		return model.CharacterStat{}, false
	}
	return c.Stats[best], true
}
