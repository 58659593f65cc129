package model

// TrackStatus is a reading-list status as understood by trackers.
type TrackStatus string

const (
	TrackReading   TrackStatus = "Reading"
	TrackCompleted TrackStatus = "Completed"
	TrackPaused    TrackStatus = "Paused"
	TrackDropped   TrackStatus = "Dropped"
	TrackPlanning  TrackStatus = "Planning"
)

// Track is the transfer value for one tracker's per-user list entry. It
// is built fresh for every read or write and never shared between tracker
// implementations.
type Track struct {
	SeriesID string
	ListID   string
	Title    string
	Progress int
	Status   TrackStatus
}
