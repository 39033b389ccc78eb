package events

import "time"

// BatchDispatch is emitted once per dispatched group of resolutions.
type BatchDispatch struct {
	Endpoint string
	// Tasks is the number of resolutions served by the call; Keys the number
	// of distinct batch keys sent. Keys is zero for unbatched calls.
	Tasks    int
	Keys     int
	Shared   bool
	Err      error
	Duration time.Duration
}
