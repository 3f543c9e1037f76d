// Package models provides the resource types shared by the gcompute client,
// the command layer and the fake compute API used in tests.
//
// API resources are passed through as generic JSON objects (Resource) so the
// client never drops fields it does not know about. A small number of typed
// views exist for the parts of the API the client has to reason about:
//   - Projects and quotas, for move quota checks
//   - Zones and maintenance windows, for zone prompts and warnings
//   - Operations and their errors
//
// All typed structs carry JSON tags matching the compute API wire format.
package models
