package events

import "time"

// Transcode is emitted after a configuration has been transcoded.
type Transcode struct {
	Source    string
	Types     int
	Endpoints int
	Causes    int
	Duration  time.Duration
}
