package domain

import "strings"

// CommitType is the conventional-commit label forwarded to the backend.
type CommitType string

const (
	CommitFeat  CommitType = "feat"
	CommitFix   CommitType = "fix"
	CommitChore CommitType = "chore"
)

// CommitClasses lists the selectable classes in display order.
var CommitClasses = []CommitType{CommitFeat, CommitFix, CommitChore}

// ParseCommitType matches input against the known classes (case-insensitive).
func ParseCommitType(s string) (CommitType, bool) {
	clean := CommitType(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range CommitClasses {
		if c == clean {
			return c, true
		}
	}
	return "", false
}

// ClassName returns the quest persona for the commit type.
func (c CommitType) ClassName() string {
	switch c {
	case CommitFeat:
		return "Magician"
	case CommitFix:
		return "Warrior"
	case CommitChore:
		return "Archer"
	}
	return "Adventurer"
}

// Description returns a short explanation of what the class does.
func (c CommitType) Description() string {
	switch c {
	case CommitFeat:
		return "Adds new features"
	case CommitFix:
		return "Fixes bugs"
	case CommitChore:
		return "General maintenance"
	}
	return ""
}
