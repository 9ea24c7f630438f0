package contracts

// NormalizationSnapshot summarizes one normalization pass, passed from S0 to S2
// ⭐ SSOT: S0 → S2 normalization quality report
type NormalizationSnapshot struct {
	TotalRaw int                `json:"total_raw"`
	Accepted int                `json:"accepted"`
	Rejected map[int]string     `json:"rejected"` // raw index -> reason
	Coverage map[string]float64 `json:"coverage"` // field -> share of accepted records with a defined value
}

// RejectRate returns the share of raw records rejected
func (s *NormalizationSnapshot) RejectRate() float64 {
	if s.TotalRaw == 0 {
		return 0.0
	}
	return float64(len(s.Rejected)) / float64(s.TotalRaw)
}

// CoverageRate returns the average coverage rate across all fields
func (s *NormalizationSnapshot) CoverageRate() float64 {
	if len(s.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range s.Coverage {
		total += rate
	}

	return total / float64(len(s.Coverage))
}
