package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransitionKind string

const (
	TransitionEntered TransitionKind = "entered"
	TransitionExited  TransitionKind = "exited"
)

type Transition struct {
	RegionID RegionID       `json:"region_id"`
	Kind     TransitionKind `json:"kind"`
	Fix      Fix            `json:"fix"`
}

// NotificationRequest is what the notification sink receives for one entry.
type NotificationRequest struct {
	ID          uuid.UUID `json:"id"`
	RegionID    RegionID  `json:"region_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Fix         Fix       `json:"fix"`
	RequestedAt time.Time `json:"requested_at"`
}

type TransitionQuery struct {
	RegionID RegionID
	Limit    int
}
