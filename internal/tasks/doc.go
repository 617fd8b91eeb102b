// Package tasks implements the playlist archival workflow and the library tools built on it.
//
// # Components
//
// Components are listed leaf-first; each one only calls the ones above it.
//
//  1. [Paginate] : follows the next cursor of a list endpoint and yields items lazily
//  2. [TrackResolver] : a playlist's tracks, optionally sorted by added-at time
//  3. [Locator] : the user's own playlists, classified as archived or self-created
//  4. [ArchiveChecker] : whether a snapshot is already archived
//     - [DescriptionChecker] scans archive descriptors
//     - [StoreChecker] queries an [ArchiveStore]
//  5. [CoverReplicator] : downloads, re-encodes and uploads a cover with bounded retry
//  6. [Copier] : creates the copy, confirms its description, adds tracks in batches of 99
//  7. [Archiver] : names, tags and copies a changed playlist; [Archiver.ArchiveBatch] runs many
//
// [TrackSearch] and [CatalogBuilder] reuse the same pieces for library search and artist catalogs.
//
// # Pacing
//
// Every remote call is sequential. A [Pacer] spaces list pages, track batches and batch items;
// the cover retry and description poll sleep between attempts. There is no internal locking:
// callers must make sure only one process archives at a time.
//
// # Progress Reporting
//
// Batch runs report on a [ProgressUpdate] channel. Sends use select with default so a slow
// or absent reader never stalls the run.
//
// # Partial failures
//
// A copy that fails after the destination was created leaves it in place. Re-running creates
// a second archive rather than resuming the first.
package tasks
