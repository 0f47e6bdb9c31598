package dto

import "time"

type AutoSweepCommand struct {
	Now           time.Time
	BatchSize     int
	WorkerID      string
	LeaseDuration time.Duration
}

type AutoSweepOutput struct {
	Claimed   int
	Swept     int
	Transfers int
	BatchID   string
	Errors    int
}
