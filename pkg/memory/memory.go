package memory

import "time"

type Category string

const (
	CategoryPersonal     Category = "personal"
	CategoryRelationship Category = "relationship"
	CategoryPreferences  Category = "preferences"
	CategoryEmotions     Category = "emotions"
	CategoryPlans        Category = "plans"
	CategoryInterests    Category = "interests"
	CategoryConcerns     Category = "concerns"
)

// Categories lists every valid fact category. Facts outside this set are
// never stored.
var Categories = []Category{
	CategoryPersonal,
	CategoryRelationship,
	CategoryPreferences,
	CategoryEmotions,
	CategoryPlans,
	CategoryInterests,
	CategoryConcerns,
}

func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Fact is one piece of extracted information about the user. Content is
// immutable after creation; confidence and verification may be revised by
// conflict resolution.
type Fact struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Verified   bool      `json:"verified"`
}

// Entry wraps a stored Fact with access bookkeeping. Owned exclusively by
// the Bank.
type Entry struct {
	Fact         Fact
	LastAccessed time.Time
	AccessCount  int
	Confidence   float64
	RelatedFacts []string
}

// Snapshot is the exported, denormalized category -> id -> content mapping.
// Confidence, verification and timestamps are intentionally not preserved.
type Snapshot map[Category]map[string]string

// ResolutionChoice selects how a detected conflict is applied to the Bank.
type ResolutionChoice string

const (
	ResolutionKeepNew      ResolutionChoice = "new"
	ResolutionKeepExisting ResolutionChoice = "existing"
	ResolutionMerge        ResolutionChoice = "merge"
)

// Stats is an aggregate view over everything the Bank has learned.
type Stats struct {
	TotalFacts        int              `json:"totalFacts"`
	FactsByCategory   map[Category]int `json:"factsByCategory"`
	AverageConfidence float64          `json:"averageConfidence"`
	VerifiedFacts     int              `json:"verifiedFacts"`
	RecentlyLearned   int              `json:"recentlyLearned"`
}
