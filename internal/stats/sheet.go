package stats

import (
	"strconv"
	"strings"

	"github.com/verte-zerg/statsheet/internal/model"
)

var displayOrder = []model.StatField{
	model.Atk, model.MagicStr, model.Def, model.MagicDef,
	model.HP, model.PhysicalCritical, model.Dodge, model.MagicCritical,
	model.WaveHPRecovery, model.WaveEnergyRecovery, model.LifeSteal, model.HPRecoveryRate,
	model.EnergyRecoveryRate, model.EnergyReduceRate, model.Accuracy,
}

var fieldLabels = [model.StatFieldCount]string{
	model.HP:                 "HP",
	model.Atk:                "Physical ATK",
	model.MagicStr:           "Magic ATK",
	model.Def:                "Physical DEF",
	model.MagicDef:           "Magic DEF",
	model.PhysicalCritical:   "Physical Crit",
	model.MagicCritical:      "Magic Crit",
	model.WaveHPRecovery:     "HP Regen",
	model.WaveEnergyRecovery: "TP Regen",
	model.Dodge:              "Dodge",
	model.LifeSteal:          "HP Drain",
	model.HPRecoveryRate:     "Healing Up",
	model.EnergyRecoveryRate: "TP Up",
	model.EnergyReduceRate:   "TP Cost Down",
	model.Accuracy:           "Accuracy",
}

// DisplayOrder returns the fields in the order stat sheets show them.
func DisplayOrder() []model.StatField {
	return append([]model.StatField(nil), displayOrder...)
}

// Label returns the human-readable name of a field.
func Label(f model.StatField) string {
	if f < 0 || f >= model.StatFieldCount {
		return f.String()
	}
	return fieldLabels[f]
}

// FormatValue renders v with two decimals, dropping trailing zeros.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatSheet lays out a stat as label/value pairs, columns pairs per line.
func FormatSheet(stat model.Stat, columns int) []string {
	if columns < 1 {
		columns = 1
	}
	rightAlign := map[int]bool{}
	for j := 0; j < columns; j++ {
		rightAlign[3*j+1] = true
	}
	rows := make([][]string, 0, (len(displayOrder)+columns-1)/columns)
	for start := 0; start < len(displayOrder); start += columns {
		end := start + columns
		if end > len(displayOrder) {
			end = len(displayOrder)
		}
		row := make([]string, 0, 3*columns)
		for j, f := range displayOrder[start:end] {
			if j > 0 {
				row = append(row, "")
			}
			row = append(row, Label(f), FormatValue(stat[f]))
		}
		rows = append(rows, row)
	}
	return formatTable(nil, rows, rightAlign)
}

// CompareTable builds a field-per-row table with one value column per unit.
func CompareTable(names []string, sheets []model.Stat) ([]string, [][]string) {
	headers := append([]string{"Stat"}, names...)
	rows := make([][]string, 0, len(displayOrder))
	for _, f := range displayOrder {
		row := make([]string, 0, len(sheets)+1)
		row = append(row, Label(f))
		for _, sheet := range sheets {
			row = append(row, FormatValue(sheet[f]))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// FormatCompare renders CompareTable as aligned text lines.
func FormatCompare(names []string, sheets []model.Stat) []string {
	headers, rows := CompareTable(names, sheets)
	rightAlign := map[int]bool{}
	for i := 1; i < len(headers); i++ {
		rightAlign[i] = true
	}
	return formatTable(headers, rows, rightAlign)
}
