package fsrs

// Stats summarises a deck.
type Stats struct {
	Total             int     `json:"total"`
	New               int     `json:"new"`
	Learning          int     `json:"learning"`
	Review            int     `json:"review"`
	AverageStability  float64 `json:"average_stability"`
	AverageDifficulty float64 `json:"average_difficulty"`
	MaturityRate      float64 `json:"maturity_rate"`
}

// matureThreshold is the maturity at which a card counts as mature.
const matureThreshold = 0.8

// ComputeStats aggregates cards. Averages only cover cards that have been
// studied at least once.
func ComputeStats(cards []Card) Stats {
	st := Stats{Total: len(cards)}
	if len(cards) == 0 {
		return st
	}

	var studied int
	var sumS, sumD float64
	var mature int
	for _, c := range cards {
		switch c.State {
		case StateNew:
			st.New++
		case StateLearning, StateRelearning:
			st.Learning++
		case StateReview:
			st.Review++
		}
		if c.State != StateNew {
			studied++
			sumS += c.Stability
			sumD += c.Difficulty
		}
		if Maturity(c) >= matureThreshold {
			mature++
		}
	}
	if studied > 0 {
		st.AverageStability = sumS / float64(studied)
		st.AverageDifficulty = sumD / float64(studied)
	}
	st.MaturityRate = float64(mature) / float64(len(cards))
	return st
}
