// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package storage persists corpus artifact sets.
//
// An artifact set is the output of one corpus build: the qualified-title
// table, the fitted TF-IDF model, the per-title vectors and a version
// stamp. The four parts are only meaningful together, so they are written
// and read as a unit.
//
// # Storage Format
//
//	<dir>/
//	  CURRENT              version number of the served set
//	  v3/
//	    titles.gob.gz      []models.Title without vectors
//	    model.gob.gz       *vector.Model
//	    vectors.gob.gz     []KeyedVector, same order as titles
//	    version.json       Manifest with per-file SHA-256 checksums
//
// Each .gob.gz file is a gob-encoded header carrying metadata and the
// gzip-compressed gob payload. The checksum covers the uncompressed
// payload and is verified on load.
//
// # Publishing
//
// Publish writes a complete set into a hidden temporary directory, syncs
// it, renames it into place and only then swaps CURRENT with an atomic
// rename. A crash at any point leaves the previous set as the one served.
// Loading verifies that every file is present, that checksums match and
// that the vectors are keyed by exactly the titles of the table, in order.
// Anything less is ErrIncompleteArtifacts.
package storage
