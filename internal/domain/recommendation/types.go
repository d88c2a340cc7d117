package recommendation

import (
	"github.com/yungbote/manga-recommender/internal/domain/catalog"
)

// PickCount is the exact size of every recommendation set.
const PickCount = 3

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderSkip   Gender = "skip"
)

type AgeBracket string

const (
	Age12to15 AgeBracket = "12~15"
	Age15to18 AgeBracket = "15~18"
	Age18to30 AgeBracket = "18~30"
	Age30to40 AgeBracket = "30~40"
	Age40to50 AgeBracket = "40~50"
	Age50Plus AgeBracket = "50~"
)

type Demographic string

const (
	DemographicKids    Demographic = "Kids"
	DemographicShounen Demographic = "Shounen"
	DemographicShoujo  Demographic = "Shoujo"
	DemographicSeinen  Demographic = "Seinen"
	DemographicJosei   Demographic = "Josei"
)

// RawInput is the user-facing questionnaire as submitted.
type RawInput struct {
	Gender    string   `json:"gender"`
	Age       string   `json:"age"`
	Genres    []string `json:"genres"`
	Favorites string   `json:"favorites"`
}

// Profile is the normalized, immutable preference record for one run.
type Profile struct {
	Gender       Gender            `json:"gender"`
	AgeBracket   AgeBracket        `json:"age_bracket"`
	MaxAgeRating catalog.AgeRating `json:"max_age_rating"`
	Demographic  Demographic       `json:"demographic"`
	Genres       []string          `json:"genres"`
	Favorites    []string          `json:"favorites"`
}

type Strategy string

const (
	StrategyCentroid        Strategy = "centroid"
	StrategyIndividualMerge Strategy = "individual_merge"
)

// Other returns the alternate retrieval strategy.
func (s Strategy) Other() Strategy {
	if s == StrategyCentroid {
		return StrategyIndividualMerge
	}
	return StrategyCentroid
}

// Candidate is a catalog item proposed by retrieval for the current attempt.
type Candidate struct {
	Item       catalog.Item `json:"item"`
	Score      float64      `json:"score"`
	Provenance Strategy     `json:"provenance"`
}

// Pick is a finalized, justified recommendation.
type Pick struct {
	Item     catalog.Item `json:"item"`
	Score    float64      `json:"score"`
	Reason   string       `json:"reason"`
	Fallback bool         `json:"fallback,omitempty"`
}

type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeForcedAccept Outcome = "forced_accept"
	// OutcomeIncomplete marks the partial result carried by an aborted run.
	OutcomeIncomplete Outcome = "incomplete"
)

// ValidationEntry records the verdict of one attempt.
type ValidationEntry struct {
	Attempt  int      `json:"attempt"`
	Strategy Strategy `json:"strategy"`
	Score    int      `json:"score"`
	Pass     bool     `json:"pass"`
	Reason   string   `json:"reason"`
}

// RecommendationSet is the terminal result of a successful run.
type RecommendationSet struct {
	RunID         string            `json:"run_id"`
	Outcome       Outcome           `json:"outcome"`
	Attempt       int               `json:"attempt"`
	Strategy      Strategy          `json:"strategy"`
	QualityScore  int               `json:"quality_score"`
	Picks         []Pick            `json:"picks"`
	ValidationLog []ValidationEntry `json:"validation_log"`
}

// ItemIDs returns pick item ids in order.
func (s *RecommendationSet) ItemIDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Picks))
	for _, p := range s.Picks {
		out = append(out, p.Item.ID)
	}
	return out
}

// Notes holds enrichment text keyed by favorite name and by catalog item id.
// Missing keys read as empty notes.
type Notes struct {
	Favorites map[string]string `json:"favorites,omitempty"`
	Items     map[string]string `json:"items,omitempty"`
}

func (n Notes) Favorite(name string) string {
	if n.Favorites == nil {
		return ""
	}
	return n.Favorites[name]
}

func (n Notes) Item(id string) string {
	if n.Items == nil {
		return ""
	}
	return n.Items[id]
}
