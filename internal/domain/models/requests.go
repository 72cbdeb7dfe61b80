package models

// Requests for the screening HTTP endpoints.

type RunRequest struct {
	Refresh    bool     `json:"refresh"`
	RefreshAll bool     `json:"refresh_all"`
	Tickers    []string `json:"tickers" validate:"omitempty,max=5000,dive,required"`
	Period     string   `json:"period" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y ytd"`
	Interval   string   `json:"interval" validate:"omitempty,oneof=1d 1wk"`
	BatchSize  int      `json:"batch_size" validate:"omitempty,gte=1,lte=500"`
}

type FilterRequest struct {
	MinScore *int     `json:"min_score" default:"6" validate:"required,gte=0,lte=14"`
	Labels   []Label  `json:"labels" validate:"omitempty,dive,oneof='Institutional Breakout' 'Strong Accumulation' 'Early Accumulation' 'Neutral/Weak'"`
	MinRSI   *float64 `json:"min_rsi" default:"40" validate:"required,gte=0,lte=100"`
	Limit    int      `json:"limit" query:"limit" validate:"gte=0"`
}

type ResultsRequest struct {
	Limit int `query:"limit" validate:"gte=0"`
}
