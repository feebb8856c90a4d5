package types

// HistoryEntry is one folded event together with the assignee set it produced.
type HistoryEntry struct {
	Event TimelineEvent `json:"event"`

	// Assignees is the sorted assignee list after applying Event.
	Assignees []string `json:"assignees"`

	// Changed is false when Event was a no-op (repeated assign, unassign of an absent user).
	Changed bool `json:"changed"`
}

// History is the full replay of an item's assignment timeline.
type History struct {
	Entries []HistoryEntry `json:"entries"`

	// MaxConcurrent is the largest number of simultaneous assignees observed.
	MaxConcurrent int `json:"max_concurrent"`
}
