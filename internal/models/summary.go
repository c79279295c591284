package models

// DaySummary aggregates the records shown for one day.
type DaySummary struct {
	Count       int     `json:"count"`
	TotalKg     float64 `json:"total_kg"`
	TotalAmount float64 `json:"total_amount"`
}

// Summarize totals weights and prices them at euroPerKg.
func Summarize(records []Record, euroPerKg float64) DaySummary {
	s := DaySummary{Count: len(records)}
	for _, r := range records {
		s.TotalKg += r.WeightKg
	}
	s.TotalAmount = s.TotalKg * euroPerKg
	return s
}

// Amount prices a single record.
func (r Record) Amount(euroPerKg float64) float64 {
	return r.WeightKg * euroPerKg
}
