package distroboard

import (
	"time"

	"github.com/jpalmerr/distroboard/internal/store"
)

// Alert kinds carried by [Snapshot.AlertKind].
const (
	AlertNone    = string(store.AlertNone)
	AlertStandby = string(store.AlertStandby)
	AlertError   = string(store.AlertError)
)

// Record is one displayed endpoint row.
type Record struct {
	// Name is the endpoint's display name.
	Name string

	// Region is the endpoint's deployment region.
	Region string

	// Domain uniquely identifies the endpoint.
	Domain string

	// PlaylistFresh reports whether the endpoint's playlist is current.
	PlaylistFresh bool

	// DistroOpen reports whether the distribution passes requests.
	DistroOpen bool

	// Updated is the last replication time as rendered in the table.
	Updated string

	// UpdatedAt is the last replication time.
	UpdatedAt time.Time
}

// Blocking reports whether the endpoint currently blocks requests.
func (r Record) Blocking() bool {
	return !r.DistroOpen
}

// Snapshot is the state of the dashboard after a view change.
//
// Snapshots are copies; modifying one does not affect the dashboard.
type Snapshot struct {
	// Running is true while a polling session is active.
	Running bool

	// Connected is true when the last poll succeeded.
	Connected bool

	// SessionID identifies the running session. Empty when stopped.
	SessionID string

	// Alert is the banner text, empty when hidden.
	Alert string

	// AlertKind is one of AlertNone, AlertStandby or AlertError.
	AlertKind string

	// Records are the displayed rows sorted by name, then domain.
	Records []Record

	// ChangedAt is when the view last changed.
	ChangedAt time.Time
}

// snapshotFromView converts the internal view to the public type.
func snapshotFromView(v store.View) Snapshot {
	var records []Record
	if len(v.Records) > 0 {
		records = make([]Record, len(v.Records))
		for i, r := range v.Records {
			records[i] = Record{
				Name:          r.Name,
				Region:        r.Region,
				Domain:        r.Domain,
				PlaylistFresh: r.PlaylistFresh,
				DistroOpen:    r.DistroOpen,
				Updated:       r.Updated,
				UpdatedAt:     r.UpdatedAt,
			}
		}
	}

	return Snapshot{
		Running:   v.Running,
		Connected: v.Connected,
		SessionID: v.SessionID,
		Alert:     v.Alert,
		AlertKind: string(v.AlertKind),
		Records:   records,
		ChangedAt: v.ChangedAt,
	}
}
