package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/transport"
)

// Sequence hands out process-unique unit ids.
type Sequence struct {
	next int
}

// Next returns the next id.
func (s *Sequence) Next() int {
	id := s.next
	s.next++
	return id
}

// Store is the insertion-ordered roster of units.
type Store struct {
	transport transport.Transport
	seq       Sequence
	units     []*Item
}

// New returns an empty Store reading from t.
func New(t transport.Transport) *Store {
	return &Store{transport: t}
}

// Transport returns the data source shared by every unit.
func (s *Store) Transport() transport.Transport {
	return s.transport
}

// Units returns the units in insertion order.
func (s *Store) Units() []*Item {
	return append([]*Item(nil), s.units...)
}

// Len returns the number of units.
func (s *Store) Len() int {
	return len(s.units)
}

// Unit returns the unit with the given id.
func (s *Store) Unit(id int) (*Item, bool) {
	for _, u := range s.units {
		if u.id == id {
			return u, true
		}
	}
	return nil, false
}

// Insert creates a unit from already-resolved info and appends it. It does
// not fetch.
func (s *Store) Insert(info model.BasicCharacterInfo) *Item {
	u := NewItem(s.seq.Next(), info)
	s.units = append(s.units, u)
	return u
}

// AddUnit resolves name, appends a new unit and runs its first fetch. An
// unknown name leaves the Store unchanged and returns nil, nil. When the
// fetch fails the unit stays in the roster and is returned with the error.
func (s *Store) AddUnit(ctx context.Context, name string) (*Item, error) {
	info, err := s.transport.GetBasicCharacterInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up %q: %w", name, err)
	}
	if info == nil {
		return nil, nil
	}
	u := s.Insert(*info)
	if err := u.Fetch(ctx, s.transport); err != nil {
		return u, err
	}
	return u, nil
}

// RemoveUnit drops the unit with the given id and reports whether it existed.
func (s *Store) RemoveUnit(id int) bool {
	for i, u := range s.units {
		if u.id == id {
			s.units = append(s.units[:i], s.units[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateOptions applies opts to a unit and fetches when its query key
// changed.
func (s *Store) UpdateOptions(ctx context.Context, id int, opts Options) error {
	u, ok := s.Unit(id)
	if !ok {
		return fmt.Errorf("unit %d not found", id)
	}
	if !u.UpdateOptions(opts) {
		return nil
	}
	return u.Fetch(ctx, s.transport)
}

// Snapshot captures every unit for persistence.
func (s *Store) Snapshot() model.Snapshot {
	snap := model.Snapshot{Units: make([]model.UnitSnapshot, 0, len(s.units))}
	for _, u := range s.units {
		snap.Units = append(snap.Units, u.Snapshot())
	}
	return snap
}

// Restore re-adds every unit of snap. Names that no longer resolve are
// skipped; fetch errors are collected and returned together.
func (s *Store) Restore(ctx context.Context, snap model.Snapshot) error {
	var errs []error
	for _, us := range snap.Units {
		info, err := s.transport.GetBasicCharacterInfo(ctx, us.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("look up %q: %w", us.Name, err))
			continue
		}
		if info == nil {
			continue
		}
		u := s.Insert(*info)
		u.UpdateOptions(Options{Rarity: Int(us.Rarity), Rank: Int(us.Rank), Level: Int(us.Level)})
		if err := u.Fetch(ctx, s.transport); err != nil {
			errs = append(errs, err)
			continue
		}
		u.ApplyEquipmentSnapshot(us.Equipment)
	}
	return errors.Join(errs...)
}
