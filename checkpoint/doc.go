// Package checkpoint persists the progress of a chained key derivation so
// that it can be resumed after the process restarts.
//
// A [Record] is written under a session ID at checkpoint boundaries and when
// the derivation finishes. Two [Store] implementations are provided:
// [MemoryStore], an LRU-bounded in-process store, and [BadgerStore], a
// durable store on disk.
//
//	store, err := checkpoint.OpenBadgerStore(checkpoint.BadgerConfig{Path: dir})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	key, err := slowcipher.ComputeKey(ctx, keyHex, saltHex, 100000, 0,
//	    slowcipher.WithCheckpointStore(store, sessionID))
package checkpoint
