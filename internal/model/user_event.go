package model

import "time"

type UserEvent struct {
	Type       string    `json:"type"`
	User       User      `json:"user"`
	OccurredAt time.Time `json:"occurred_at"`
}
