// Package store holds the render surface state of the DistroBoard dashboard.
//
// This package is internal to DistroBoard. It keeps a single [View]: the
// displayed endpoint records, the connectivity indicator, the alert banner
// and whether a polling session is running. Every change publishes a full
// snapshot of the View to subscribers.
//
// The main components are:
//
//   - [Store]: Interface defining view mutation and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [View]: Snapshot of everything the dashboard shows
//   - [Record]: One displayed row describing a streaming endpoint
//
// Subscribers receive snapshots via channels with non-blocking sends (slow
// subscribers miss frames rather than block the poll loop). Since every frame
// is a full snapshot, a missed frame is repaired by the next one.
package store
