package service

import "SmartMoney/internal/domain/models"

// TickerScorer turns one ticker's history plus the benchmark into a scored
// row of the result table.
type TickerScorer interface {
	Score(series, benchmark models.Series) (models.ScoreRecord, error)
}

// TickerScorerFunc adapts a plain function to TickerScorer.
type TickerScorerFunc func(series, benchmark models.Series) (models.ScoreRecord, error)

func (f TickerScorerFunc) Score(series, benchmark models.Series) (models.ScoreRecord, error) {
	return f(series, benchmark)
}
