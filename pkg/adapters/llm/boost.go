package llm

import (
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

type boostKey struct {
	language       string
	specialization string
	commitType     domain.CommitType
}

// Boost is extra experience granted for a matching profile and class.
type Boost struct {
	Points  int
	Message string
}

// Full-stack rows only match a profile whose language is empty.
var boosts = map[boostKey]Boost{
	{"python", "machine learning", domain.CommitFeat}: {20, "Your AI spells are more powerful as a Magician!"},
	{"javascript", "front-end", domain.CommitChore}:   {15, "Your front-end Archer skills give extra precision!"},
	{"go", "backend", domain.CommitFix}:               {25, "Your backend Warrior skills provide extra resilience!"},
	{"rust", "backend", domain.CommitFix}:             {25, "Your backend Warrior skills provide extra resilience!"},
	{"", "full-stack", domain.CommitFeat}:             {10, "Your Full-stack skills shine as you craft a new feature!"},
	{"", "full-stack", domain.CommitFix}:              {10, "Your Full-stack prowess helps squash a bug!"},
	{"", "full-stack", domain.CommitChore}:            {10, "Your Full-stack versatility enhances the codebase!"},
}

// SpecializationBoost looks up the boost for a profile and commit type.
// Keys match exactly, ignoring case; a miss is worth nothing.
func SpecializationBoost(p Profile, ct domain.CommitType) Boost {
	lang := strings.ToLower(strings.TrimSpace(p.Language))
	specialty := strings.ToLower(strings.TrimSpace(p.Specialization))
	return boosts[boostKey{lang, specialty, ct}]
}
