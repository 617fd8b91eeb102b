// Package models defines the domain entities shared by the mtfs commands.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: views of remote data, fetched per operation and discarded
//   - [Playlist] : playlist metadata, including the snapshot token that changes whenever its tracks change
//   - [Track] : track metadata with artists, album release information and the membership timestamp
//   - [ArchiveDescriptor] : provenance of an archived playlist, stored as text in its description
//
// 2. Persistent Entities: database-backed records
//   - [ArchiveRecord] : an optional mirror of every archive created, written once and never mutated
//
// [ArchiveDescriptor] values are rendered with [ArchiveDescriptor.Encode] and read back with [ParseArchiveDescriptor].
// Both the description scan and the database lookup decide "already archived" against that one typed value.
package models
