// pkg/model/session.go
package model

import "time"

// ArchiveEntry is a named snapshot of a ledger and its column profile.
// The dataset itself is never archived.
type ArchiveEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Pipeline  []PipelineStep  `json:"pipeline"`
	Profile   []ColumnProfile `json:"dataProfile,omitempty"`
}

// Clone returns an independent copy of the entry
func (e ArchiveEntry) Clone() ArchiveEntry {
	e.Pipeline = ClonePipeline(e.Pipeline)
	e.Profile = CloneProfiles(e.Profile)
	return e
}
