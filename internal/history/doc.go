// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

/*
Package history stores which titles the user has watched.

Two backends implement Store:

  - BadgerStore (default): an embedded BadgerDB with one record key per
    title and a per-kind recency index.
  - RedisStore: a hash per title plus a per-kind sorted set, written by
    Lua scripts.

Local playback signals use RecordView, which keeps the latest timestamp.
Bulk imports such as the Trakt sync use InsertIfAbsent, so a re-sync never
moves a title that was already recorded.

	store, err := history.Open(ctx, &cfg.History, logger)
	if err != nil {
	    return err
	}
	defer store.Close()

	_, err = store.RecordView(ctx, models.View{
	    TitleID: "tt0111161", Kind: models.KindMovie, Timestamp: time.Now(), Source: models.SourceLocal,
	})
	ids, err := store.RecentByKind(ctx, models.KindMovie, 5)
*/
package history
