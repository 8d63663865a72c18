package state

import (
	"context"
	"errors"

	"github.com/verte-zerg/statsheet/internal/model"
)

var errOffline = errors.New("offline")

type fakeTransport struct {
	infos     map[string]model.BasicCharacterInfo
	units     map[model.CharacterStatOptions]*model.CharacterUnit
	fallback  *model.CharacterUnit
	err       error
	statErr   error
	statCalls []model.CharacterStatOptions
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		infos: map[string]model.BasicCharacterInfo{},
		units: map[model.CharacterStatOptions]*model.CharacterUnit{},
	}
}

func (f *fakeTransport) GetBasicCharacterInfo(_ context.Context, name string) (*model.BasicCharacterInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[name]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (f *fakeTransport) GetCharacterStat(_ context.Context, opts model.CharacterStatOptions) (*model.CharacterUnit, error) {
	f.statCalls = append(f.statCalls, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.statErr != nil {
		return nil, f.statErr
	}
	if unit, ok := f.units[opts]; ok {
		return unit, nil
	}
	return f.fallback, nil
}

func statWith(field model.StatField, v float64) model.Stat {
	var s model.Stat
	s[field] = v
	return s
}

func equipment(id int, tier model.PromotionLevel, atk, atkGrowth float64) *model.Equipment {
	return &model.Equipment{
		ID:             id,
		Name:           "Equipment",
		PromotionLevel: tier,
		Stat:           statWith(model.Atk, atk),
		GrowthRate:     statWith(model.Atk, atkGrowth),
	}
}

func characterUnit(equipments ...*model.Equipment) *model.CharacterUnit {
	if equipments == nil {
		equipments = []*model.Equipment{}
	}
	return &model.CharacterUnit{
		ID:   100101,
		Name: "Tomo",
		Stat: model.CharacterStat{
			Base:       statWith(model.Atk, 100),
			GrowthRate: statWith(model.Atk, 1),
		},
		Equipments: equipments,
	}
}
