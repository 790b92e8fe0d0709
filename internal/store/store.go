package store

import "time"

// AlertKind classifies the message in the alert banner.
type AlertKind string

const (
	// AlertNone means the banner is hidden.
	AlertNone AlertKind = ""

	// AlertStandby is shown while no session is running.
	AlertStandby AlertKind = "standby"

	// AlertError carries the text of the error that stopped the session.
	AlertError AlertKind = "error"
)

// Record is one displayed row describing a streaming endpoint.
//
// Records are recreated wholesale on every successful poll; they are never
// merged field by field.
type Record struct {
	// Name is the endpoint's display name.
	Name string `json:"name"`

	// Region is the endpoint's deployment region.
	Region string `json:"region"`

	// Domain uniquely identifies the endpoint and keys remote updates.
	Domain string `json:"domain"`

	// PlaylistFresh reports whether the endpoint's playlist is current.
	PlaylistFresh bool `json:"playlist_fresh"`

	// DistroOpen reports whether the distribution passes requests.
	// Blocking is active when DistroOpen is false.
	DistroOpen bool `json:"distro_open"`

	// Updated is the last replication time rendered for display.
	Updated string `json:"updated"`

	// UpdatedAt is the last replication time.
	UpdatedAt time.Time `json:"updated_at"`
}

// Blocking reports whether the endpoint currently blocks requests.
func (r Record) Blocking() bool {
	return !r.DistroOpen
}

// View is a snapshot of the dashboard.
type View struct {
	// Running is true while a polling session is active.
	Running bool `json:"running"`

	// Connected is true when the last poll succeeded.
	Connected bool `json:"connected"`

	// SessionID identifies the running session. Empty when stopped.
	SessionID string `json:"session_id,omitempty"`

	// Alert is the banner text. Empty hides the banner.
	Alert string `json:"alert,omitempty"`

	// AlertKind classifies Alert.
	AlertKind AlertKind `json:"alert_kind,omitempty"`

	// Records are the displayed rows.
	Records []Record `json:"records"`

	// ChangedAt is when the view last changed.
	ChangedAt time.Time `json:"changed_at"`
}

// Lookup returns the displayed record for domain.
func (v View) Lookup(domain string) (Record, bool) {
	for _, r := range v.Records {
		if r.Domain == domain {
			return r, true
		}
	}
	return Record{}, false
}

// clone returns a copy of v that shares no memory with it.
func (v View) clone() View {
	if v.Records != nil {
		v.Records = append([]Record(nil), v.Records...)
	}
	return v
}

// Store defines the interface for mutating and subscribing to the view.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism pushes every change to connected clients (e.g., via Server-Sent
// Events).
type Store interface {
	// Update applies fn to the view and notifies all subscribers.
	// fn runs under the store's lock and must not call back into the store.
	Update(fn func(v *View))

	// Snapshot returns the current view.
	// The returned value is a copy; modifications do not affect the store.
	Snapshot() View

	// Subscribe returns a channel that receives a snapshot after every Update.
	// The returned channel has a buffer; slow consumers may miss snapshots.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan View

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan View)
}
