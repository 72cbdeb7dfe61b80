package usecase

import "SmartMoney/internal/domain/models"

// Filter selects rows of a result table.
type Filter struct {
	MinScore int
	Labels   []models.Label
	MinRSI   float64
}

// DefaultFilter keeps early accumulation and better with RSI of at least 40.
func DefaultFilter() Filter {
	return Filter{MinScore: 6, Labels: models.AllLabels(), MinRSI: 40}
}

// Apply returns the records that pass every condition, in input
// order. An empty label list accepts all labels. A record without an RSI
// value never passes the RSI condition.
func (f Filter) Apply(records []models.ScoreRecord) []models.ScoreRecord {
	labels := make(map[models.Label]struct{}, len(f.Labels))
	for _, l := range f.Labels {
		labels[l] = struct{}{}
	}

	out := make([]models.ScoreRecord, 0, len(records))
	for _, r := range records {
		if r.SmartScore < f.MinScore {
			continue
		}
		if len(labels) > 0 {
			if _, ok := labels[r.Label]; !ok {
				continue
			}
		}
		if r.RSI == nil || *r.RSI < f.MinRSI {
			continue
		}
		out = append(out, r)
	}
	return out
}
