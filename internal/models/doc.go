// Package models defines domain entities and persistence interfaces for the tidalift migration tool.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): flat records mirroring vendor API data and
// the on-disk JSON snapshots handed between commands
//   - [Artist] : Spotify artist metadata with collection source tags
//   - [Track] : song metadata with ISRC for cross-service matching
//   - [Playlist] / [PlaylistExport] : playlist metadata and full track listings
//   - [ArtistAvailability] : an artist annotated with its Tidal lookup result
//   - [TrackMatch] / [PlaylistMigration] : per-track and per-playlist migration outcomes
//
// 2. Persistent Entities: database-backed records with full lifecycle management
//   - [PersistedArtist] : cached artists with availability results
//   - [PersistedTrackMatch] : resolved Spotify → Tidal track matches
//
// All persistent entities implement the [Model] interface providing ID generation,
// timestamps, validation, and soft delete support. The [Repository] interface
// defines standard CRUD operations for database access.
package models
