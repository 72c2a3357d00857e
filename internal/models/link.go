package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultPriority = 0.5

// NewLink creates an enabled link with generated UUID and timestamps
func NewLink(loc, language string) *Link {
	now := time.Now()
	if language == "" {
		language = LanguageNone
	}
	return &Link{
		ID:        uuid.New(),
		Type:      "custom",
		Loc:       loc,
		Language:  language,
		Priority:  DefaultPriority,
		Status:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
