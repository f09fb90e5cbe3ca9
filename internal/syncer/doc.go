// Package syncer implements one sync invocation.
//
// An invocation:
//   - Fetches the region universe
//   - Advances the persisted cursor before any work, so a crash still moves on
//   - Processes the selected region with a variant-specific RegionProcessor
//
// Regions are processed one at a time; concurrency lives inside a region.
package syncer
