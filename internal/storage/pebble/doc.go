// Package pebblestore wraps Pebble with an fsync policy, metrics hooks and a
// few helpers (prefix scans, not-found checks) used by the task store and the
// embedded chunk queues.
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeInterval})
//	if err != nil { ... }
//	defer db.Close()
//	_ = db.Set([]byte("task/RECON-TASK-1"), payload)
//	_ = db.ScanPrefix([]byte("task/"), func(k, v []byte) bool { return true })
package pebblestore
