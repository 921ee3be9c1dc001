package domain

// CategoryStats is the scorecard slice for one category.
type CategoryStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"` // percentage, one decimal place
}

// PredictionStats is the rolling accuracy scorecard over a trailing window.
// Accuracy is correct/(total-pending) as a percentage rounded to one
// decimal, and 0 when the denominator is zero.
type PredictionStats struct {
	WindowDays int                        `json:"window_days"`
	Total      int                        `json:"total"`
	Correct    int                        `json:"correct"`
	Wrong      int                        `json:"wrong"`
	Cancelled  int                        `json:"cancelled"`
	Ambiguous  int                        `json:"ambiguous"`
	Pending    int                        `json:"pending"`
	Accuracy   float64                    `json:"accuracy"`
	ByCategory map[Category]CategoryStats `json:"by_category"`
}
