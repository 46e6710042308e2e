package domain

import "time"

type FixSource string

const (
	SourceForeground FixSource = "foreground"
	SourceBackground FixSource = "background"
	SourceManual     FixSource = "manual"
)

type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Source    FixSource `json:"source"`
}

type HistoryQuery struct {
	Start time.Time
	End   time.Time
}
