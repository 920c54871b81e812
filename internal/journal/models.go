package journal

import (
	"time"

	"github.com/google/uuid"
)

// Event is one recorded machine event.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	CoffeeType string    `json:"coffee_type,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
