// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package models defines the data structures shared across ForYou.

Key Components:

  - Title: A qualified catalog title produced by the corpus builder. Titles
    are immutable once built and own their feature vector.
  - Kind: The media kind of a title (movie or series).
  - View: One watch-history row, upserted per title ID.
  - APIResponse / APIError: The JSON envelope of the /api/v1 surface.

The package has no dependencies on other internal packages except the
vector package that defines the feature vector type, so it can be imported
from every layer without cycles.
*/
package models
