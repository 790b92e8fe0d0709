// Package source reads and writes the remote table that holds the state of
// every streaming endpoint.
//
// A [Source] supports exactly two operations: a full scan of the table and a
// single-field update of the distro_open flag keyed by domain. The production
// implementation is [DynamoSource]; [MemorySource] backs tests and the demo.
//
// Items are validated at the boundary. An item with a missing or wrongly typed
// attribute fails the whole scan with [ErrMalformedItem].
package source

import (
	"context"
	"errors"

	"github.com/jpalmerr/distroboard/credentials"
)

// Attribute names of a table item.
const (
	AttrDomain        = "domain"
	AttrName          = "name"
	AttrRegion        = "region"
	AttrPlaylistFresh = "playlist_fresh"
	AttrDistroOpen    = "distro_open"

	// AttrReplicatedAt is written by global-table replication. The value is
	// epoch seconds with a fractional part.
	AttrReplicatedAt = "aws:rep:updatetime"
)

// ErrMalformedItem is returned when a scanned item does not match the schema.
var ErrMalformedItem = errors.New("malformed item")

// ErrUnknownDomain is returned by sources that refuse to update a domain
// they do not hold.
var ErrUnknownDomain = errors.New("unknown domain")

// Item is one decoded row of the remote table.
type Item struct {
	Domain        string
	Name          string
	Region        string
	PlaylistFresh bool
	DistroOpen    bool

	// ReplicatedAt is epoch seconds, fractional.
	ReplicatedAt float64
}

// Source is the remote state the dashboard mirrors.
type Source interface {
	// Scan returns every item in the table. Either all items decode or the
	// scan fails as a whole.
	Scan(ctx context.Context) ([]Item, error)

	// SetDistroOpen sets distro_open on the item keyed by domain.
	SetDistroOpen(ctx context.Context, domain string, open bool) error
}

// Factory builds a [Source] for a set of credentials.
type Factory func(credentials.Credentials) (Source, error)
