package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/stats"
	"github.com/verte-zerg/statsheet/internal/transport"
)

// MaxRarity is the highest rarity a unit can be configured to.
const MaxRarity = 5

var errFetchAborted = errors.New("fetch aborted")

// Options is a partial update of a unit's configuration. Nil fields are left
// unchanged.
type Options struct {
	Rarity *int
	Rank   *int
	Level  *int
}

// Int returns a pointer to v for building Options.
func Int(v int) *int {
	return &v
}

// Item is one configured character in the roster.
type Item struct {
	id     int
	info   model.BasicCharacterInfo
	rarity int
	rank   int
	level  int

	equipments []*EquipmentItem
	base       *model.Stat
	growthRate *model.Stat
	statByRank *model.Stat
	err        error

	outstanding int
	issued      uint64
}

// FetchRequest is a tagged stat request captured from an Item.
type FetchRequest struct {
	UnitID  int
	Seq     uint64
	Options model.CharacterStatOptions
}

// FetchResult is the outcome of running a FetchRequest.
type FetchResult struct {
	UnitID int
	Seq    uint64
	Unit   *model.CharacterUnit
	Err    error
}

// NewItem builds an unloaded unit at its minimum rarity, rank 1 and level 1.
func NewItem(id int, info model.BasicCharacterInfo) *Item {
	u := &Item{id: id, info: info, rank: 1, level: 1}
	u.rarity = u.clampRarity(info.Rarity)
	return u
}

// ID returns the roster id assigned by the Store.
func (u *Item) ID() int { return u.id }

// Info returns the basic character info the unit was created from.
func (u *Item) Info() model.BasicCharacterInfo { return u.info }

// Name returns the character name.
func (u *Item) Name() string { return u.info.Name }

// Rarity returns the configured rarity.
func (u *Item) Rarity() int { return u.rarity }

// Rank returns the configured rank.
func (u *Item) Rank() int { return u.rank }

// Level returns the configured level.
func (u *Item) Level() int { return u.level }

// Loading reports whether at least one fetch is outstanding.
func (u *Item) Loading() bool { return u.outstanding > 0 }

// Err returns the error of the most recent fetch, if it failed.
func (u *Item) Err() error { return u.err }

// Equipments returns the unit's equipment slots in order.
func (u *Item) Equipments() []*EquipmentItem {
	return append([]*EquipmentItem(nil), u.equipments...)
}

// Loaded reports whether base and growth stats are present.
func (u *Item) Loaded() bool {
	return u.base != nil && u.growthRate != nil
}

// QueryKey returns the values that determine the fetched data.
func (u *Item) QueryKey() model.CharacterStatOptions {
	return model.CharacterStatOptions{Name: u.info.Name, Rarity: u.rarity, Rank: u.rank}
}

// UpdateOptions applies clamped updates and reports whether the query key
// changed, in which case the caller must fetch. Level-only changes never
// require a fetch.
func (u *Item) UpdateOptions(opts Options) bool {
	before := u.QueryKey()
	if opts.Rarity != nil {
		u.rarity = u.clampRarity(*opts.Rarity)
	}
	if opts.Rank != nil {
		u.rank = max(1, *opts.Rank)
	}
	if opts.Level != nil {
		u.level = max(1, *opts.Level)
	}
	return u.QueryKey() != before
}

func (u *Item) clampRarity(v int) int {
	return min(MaxRarity, max(u.info.Rarity, v))
}

// BeginFetch marks a fetch outstanding and captures the current query key
// under a new sequence number.
func (u *Item) BeginFetch() FetchRequest {
	u.outstanding++
	u.issued++
	return FetchRequest{UnitID: u.id, Seq: u.issued, Options: u.QueryKey()}
}

// Run performs the request. It touches no Item state and may run on any
// goroutine.
func (r FetchRequest) Run(ctx context.Context, t transport.Transport) FetchResult {
	unit, err := t.GetCharacterStat(ctx, r.Options)
	if err != nil {
		err = fmt.Errorf("fetch %s (rarity %d, rank %d): %w", r.Options.Name, r.Options.Rarity, r.Options.Rank, err)
	}
	return FetchResult{UnitID: r.UnitID, Seq: r.Seq, Unit: unit, Err: err}
}

// Finish releases the outstanding fetch and applies its result unless a
// newer request has been issued since. The result's transport error, if any,
// is returned.
func (u *Item) Finish(res FetchResult) error {
	if res.UnitID != u.id {
		return fmt.Errorf("fetch result for unit %d finished on unit %d", res.UnitID, u.id)
	}
	if u.outstanding > 0 {
		u.outstanding--
	}
	if res.Seq != u.issued {
		return res.Err
	}
	if res.Err != nil {
		u.err = res.Err
		return res.Err
	}
	u.err = nil
	u.apply(res.Unit)
	return nil
}

// Fetch runs BeginFetch, Run and Finish in sequence. The outstanding mark is
// released on every exit path.
func (u *Item) Fetch(ctx context.Context, t transport.Transport) (err error) {
	req := u.BeginFetch()
	res := FetchResult{UnitID: req.UnitID, Seq: req.Seq, Err: errFetchAborted}
	defer func() {
		err = u.Finish(res)
	}()
	res = req.Run(ctx, t)
	return nil
}

func (u *Item) apply(unit *model.CharacterUnit) {
	if unit == nil || unit.Equipments == nil {
		u.clearDetail()
		return
	}
	if !u.sameComposition(unit.Equipments) {
		items := make([]*EquipmentItem, 0, len(unit.Equipments))
		for _, eq := range unit.Equipments {
			items = append(items, NewEquipmentItem(eq))
		}
		u.equipments = items
	}
	base := unit.Stat.Base
	growth := unit.Stat.GrowthRate
	u.base = &base
	u.growthRate = &growth
	u.statByRank = nil
	if unit.StatByRank != nil {
		byRank := *unit.StatByRank
		u.statByRank = &byRank
	}
}

func (u *Item) clearDetail() {
	u.equipments = nil
	u.base = nil
	u.growthRate = nil
	u.statByRank = nil
}

func (u *Item) sameComposition(equipments []*model.Equipment) bool {
	if len(u.equipments) != len(equipments) {
		return false
	}
	for i, eq := range equipments {
		if !u.equipments[i].sameSlot(eq) {
			return false
		}
	}
	return true
}

// StatInputs are the values the final stat is derived from.
type StatInputs struct {
	Base       *model.Stat
	GrowthRate *model.Stat
	StatByRank *model.Stat
	Level      int
	Rank       int
	Equipment  []model.Stat
}

// ComputeStat derives the final stat sheet. It returns false until both base
// and growth stats are present.
func ComputeStat(in StatInputs) (model.Stat, bool) {
	if in.Base == nil || in.GrowthRate == nil {
		return model.Stat{}, false
	}
	terms := make([]stats.Term, 0, 3+len(in.Equipment))
	terms = append(terms,
		stats.Term{Stat: *in.Base, Coeff: 1},
		stats.Term{Stat: *in.GrowthRate, Coeff: float64(in.Level + in.Rank)},
	)
	if in.StatByRank != nil {
		terms = append(terms, stats.Term{Stat: *in.StatByRank, Coeff: 1})
	}
	for _, eq := range in.Equipment {
		terms = append(terms, stats.Term{Stat: eq, Coeff: 1})
	}
	return stats.CombineLinear(terms), true
}

// StatInputs captures the unit's current values for ComputeStat.
func (u *Item) StatInputs() StatInputs {
	in := StatInputs{
		Base:       u.base,
		GrowthRate: u.growthRate,
		StatByRank: u.statByRank,
		Level:      u.level,
		Rank:       u.rank,
	}
	for _, eq := range u.equipments {
		if s, ok := eq.Stat(); ok {
			in.Equipment = append(in.Equipment, s)
		}
	}
	return in
}

// Stat returns the final stat sheet, or false while data is unavailable.
func (u *Item) Stat() (model.Stat, bool) {
	return ComputeStat(u.StatInputs())
}

// Snapshot captures the unit's options and known equipment state.
func (u *Item) Snapshot() model.UnitSnapshot {
	snap := model.UnitSnapshot{Name: u.info.Name, Rarity: u.rarity, Rank: u.rank, Level: u.level}
	for i, eq := range u.equipments {
		id, ok := eq.ID()
		if !ok {
			continue
		}
		snap.Equipment = append(snap.Equipment, model.EquipmentSnapshot{
			Slot:         i,
			EquipmentID:  id,
			Equipped:     eq.Equipped(),
			EnhanceLevel: eq.EnhanceLevel(),
		})
	}
	return snap
}

// ApplyEquipmentSnapshot restores slot state where the slot still holds the
// same equipment.
func (u *Item) ApplyEquipmentSnapshot(slots []model.EquipmentSnapshot) {
	for _, s := range slots {
		if s.Slot < 0 || s.Slot >= len(u.equipments) {
			continue
		}
		eq := u.equipments[s.Slot]
		if id, ok := eq.ID(); !ok || id != s.EquipmentID {
			continue
		}
		eq.SetEquipped(s.Equipped)
		eq.SetEnhanceLevel(s.EnhanceLevel)
	}
}
