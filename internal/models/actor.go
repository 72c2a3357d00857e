package models

import (
	"time"

	"github.com/google/uuid"
)

// NewActor creates an actor with generated UUID holding a copy of capabilities
func NewActor(name string, capabilities []string) *Actor {
	caps := make([]string, len(capabilities))
	copy(caps, capabilities)
	return &Actor{
		ID:           uuid.New(),
		Name:         name,
		Capabilities: caps,
		CreatedAt:    time.Now(),
	}
}

// HasCapability reports whether the actor was granted capability
func (a *Actor) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
