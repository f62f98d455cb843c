// Package storage writes and reads back the artefacts of a collection run:
// users.csv, repositories.csv, the analysis JSON and the README report.
//
// Every file is written to a temporary file first and renamed into place,
// so an interrupted run never leaves a half-written table behind.
//
//	manager, err := storage.NewManager(cfg.Output)
//	if err != nil {
//	    return err
//	}
//	if err := manager.WriteUsers(snapshot.Users); err != nil {
//	    return err
//	}
//
// ReadSnapshot loads the two CSV tables again, which is how the analyze
// command re-runs aggregation without touching the network.
package storage
