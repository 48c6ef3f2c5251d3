package model

import "time"

// WalkRun is one persisted execution of the greedy street walk: the
// parameters that produced it and the per-node same-street decisions.
type WalkRun struct {
	ID       string `json:"id"`
	Metric   string `json:"metric"`
	Seed     int64  `json:"seed"`
	Restarts int    `json:"restarts"`
	Segments int    `json:"segments"`

	// Decisions maps node ID (TNID) to the recorded indicator: 1 when
	// the walk continued on a same-named street at that node, else 0.
	Decisions map[string]int `json:"decisions"`

	CreatedAt time.Time `json:"created_at"`
}
