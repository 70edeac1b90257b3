// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package builder produces the recommendation corpus offline.

A build reads five record streams (see Sources), keeps movies and series
released on or after the year threshold, resolves each title's primary
region from its alternative-title regions, attaches the director and
top-billed actor names, joins ratings, drops titles below the vote
threshold, renders one weighted feature document per title and fits the
TF-IDF model over those documents.

The result is a storage.ArtifactSet. Run publishes it through the artifact
store, so a server only ever sees complete sets: a build that fails at any
step publishes nothing and the previous version stays current.

Region resolution:

	regions {US, IN, GB}, priority [IN, GB]  ->  IN
	regions {US, FR},     priority [IN, GB]  ->  Other

Feature document weights: genres x3, directors x2, actors x1, title x1.
*/
package builder
