package domain

type ItemError struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// SyncSummary is returned by one orchestrator run and never persisted.
type SyncSummary struct {
	FetchedCount  int         `json:"fetched_count"`
	AddedCount    int         `json:"added_count"`
	EventsCreated int         `json:"events_created"`
	Errors        []ItemError `json:"errors"`
}
