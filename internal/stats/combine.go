// Package stats contains stat arithmetic and stat-sheet formatting.
package stats

import "github.com/verte-zerg/statsheet/internal/model"

// Term is one weighted component of a linear stat combination.
type Term struct {
	Stat  model.Stat
	Coeff float64
}

// CombineLinear returns the field-wise sum of every term's stat scaled by its
// coefficient. An empty term list yields the zero Stat.
func CombineLinear(terms []Term) model.Stat {
	var result model.Stat
	for _, term := range terms {
		for i := range result {
			result[i] += term.Stat[i] * term.Coeff
		}
	}
	return result
}
