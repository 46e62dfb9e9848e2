package domain

// EntryKind classifies a transcript entry for display.
type EntryKind string

const (
	EntryUser   EntryKind = "user"
	EntrySystem EntryKind = "system"
	EntryError  EntryKind = "error"
)

// Entry is one immutable line of the transcript.
type Entry struct {
	Kind EntryKind `json:"kind"`
	Text string    `json:"text"`
}

// UserEntry echoes what the user typed.
func UserEntry(text string) Entry { return Entry{Kind: EntryUser, Text: text} }

// SystemEntry is a message produced by the quest itself.
func SystemEntry(text string) Entry { return Entry{Kind: EntrySystem, Text: text} }

// ErrorEntry reports a rejected input or a failed backend call.
func ErrorEntry(text string) Entry { return Entry{Kind: EntryError, Text: text} }
