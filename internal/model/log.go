package model

import "time"

// SystemLog is an append-only audit entry.
type SystemLog struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ArmorerName string    `json:"armorer_name"`
	Action      string    `json:"action"`
	Details     string    `json:"details"`
}
