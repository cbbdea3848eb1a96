package entity

import "time"

// LeadNotification is the payload handed to notification transports.
type LeadNotification struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CapturedAt time.Time `json:"captured_at"`
}
