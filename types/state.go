package types

// ItemState represents the tracking pipeline state of a single item.
//
// States follow a fixed progression while an item is processed by a worker:
//
//	ItemPending → ItemFetching → ItemReconstructing → ItemDiffing → ItemPersisting → ItemSucceeded
//
// Any non-terminal state may move to ItemFailed. ItemPersisting is skipped in
// dry-run mode (ItemDiffing → ItemSucceeded). Succeeded and Failed are terminal.
type ItemState int

const (
	// ItemPending indicates the item is queued and not yet picked up by a worker.
	ItemPending ItemState = iota

	// ItemFetching indicates the worker is paging through the item's timeline.
	ItemFetching

	// ItemReconstructing indicates the event fold is being finalized.
	ItemReconstructing

	// ItemDiffing indicates the state is being compared with the stored snapshot.
	ItemDiffing

	// ItemPersisting indicates the new snapshot is being written.
	ItemPersisting

	// ItemSucceeded indicates a diff was computed and its snapshot persisted.
	ItemSucceeded

	// ItemFailed indicates the item could not be checked.
	ItemFailed
)

// String returns the string representation of the state.
func (s ItemState) String() string {
	switch s {
	case ItemPending:
		return "Pending"
	case ItemFetching:
		return "Fetching"
	case ItemReconstructing:
		return "Reconstructing"
	case ItemDiffing:
		return "Diffing"
	case ItemPersisting:
		return "Persisting"
	case ItemSucceeded:
		return "Succeeded"
	case ItemFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s ItemState) IsTerminal() bool {
	return s == ItemSucceeded || s == ItemFailed
}

var validItemTransitions = map[ItemState][]ItemState{
	ItemPending:        {ItemFetching, ItemFailed},
	ItemFetching:       {ItemReconstructing, ItemFailed},
	ItemReconstructing: {ItemDiffing, ItemFailed},
	ItemDiffing:        {ItemPersisting, ItemSucceeded, ItemFailed},
	ItemPersisting:     {ItemSucceeded, ItemFailed},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ItemState) CanTransitionTo(next ItemState) bool {
	for _, allowed := range validItemTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}
