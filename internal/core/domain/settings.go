package domain

import "time"

// Settings is the effective configuration of one install run.
type Settings struct {
	Registry           string
	StoreDir           string
	NetworkConcurrency int
	FetchRetries       int
	FetchRetryDelay    time.Duration
	MaxDepth           int
	JSONLogs           bool
}
