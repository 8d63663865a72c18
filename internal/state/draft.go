package state

// Draft is an unapplied edit of a unit's rarity, rank and level.
type Draft struct {
	Rarity int
	Rank   int
	Level  int

	minRarity int
}

// NewDraft starts a draft from the unit's applied options.
func NewDraft(u *Item) Draft {
	return Draft{Rarity: u.rarity, Rank: u.rank, Level: u.level, minRarity: u.info.Rarity}
}

// Dirty reports whether the draft differs from the unit's applied options.
func (d Draft) Dirty(u *Item) bool {
	return d.Rarity != u.rarity || d.Rank != u.rank || d.Level != u.level
}

// AddRarity moves the drafted rarity by delta within [min rarity, MaxRarity].
func (d *Draft) AddRarity(delta int) {
	d.Rarity = min(MaxRarity, max(d.minRarity, d.Rarity+delta))
}

// AddRank moves the drafted rank by delta, never below 1.
func (d *Draft) AddRank(delta int) {
	d.Rank = max(1, d.Rank+delta)
}

// AddLevel moves the drafted level by delta, never below 1.
func (d *Draft) AddLevel(delta int) {
	d.Level = max(1, d.Level+delta)
}

// Options converts the draft into an update for Item.UpdateOptions.
func (d Draft) Options() Options {
	return Options{Rarity: Int(d.Rarity), Rank: Int(d.Rank), Level: Int(d.Level)}
}

// Sync resets the draft to the unit's applied options unless the unit is
// still loading.
func (d *Draft) Sync(u *Item) bool {
	if u.Loading() {
		return false
	}
	*d = NewDraft(u)
	return true
}
