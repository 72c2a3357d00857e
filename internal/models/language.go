package models

import "time"

// NewLanguage creates a language record stamped with the current time
func NewLanguage(code, name string) *Language {
	return &Language{
		Code:      code,
		Name:      name,
		CreatedAt: time.Now(),
	}
}
