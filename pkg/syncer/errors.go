package syncer

import "errors"

var (
	ErrNonSequentialUpdate = errors.New("non sequential update")
	ErrStaleSnapshot       = errors.New("snapshot older than queued updates")
	ErrSnapshotFetchFailed = errors.New("snapshot fetch failed")
)
