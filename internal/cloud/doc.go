// Package cloud is the top-level registry: one PageCloud per page id plus
// a single DeviceSet.
//
// A Cloud is purely in-memory unless a Journal is attached, in which case
// every accepted mutation is written to the journal before it is applied
// and Restore rebuilds the same state from a Snapshot.
package cloud
