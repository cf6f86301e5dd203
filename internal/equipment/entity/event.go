package entity

// DatasetStoredEvent is published after a dataset has been persisted.
type DatasetStoredEvent struct {
	EventID string
	Dataset Dataset
}
