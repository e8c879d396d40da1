package dto

import "time"

// Notice is an admin-facing status message.
type Notice struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
