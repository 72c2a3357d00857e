package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSitemapContext_HashIgnoresKeyOrder(t *testing.T) {
	a := SitemapContext{"language": "en", "domain": "example.com"}
	b := SitemapContext{"domain": "example.com", "language": "en"}

	assert.Equal(t, "domain=example.com&language=en", a.Canonical())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), SitemapContext{"language": "fr"}.Hash())
}

func TestNewSitemap_CopiesContext(t *testing.T) {
	ctx := SitemapContext{"language": "en"}
	sm := NewSitemap(ctx)
	ctx["language"] = "fr"

	assert.Equal(t, "en", sm.Context.Language())
	assert.Equal(t, SitemapContext{"language": "en"}.Hash(), sm.ContextHash)
}

func TestNewLink_DefaultsToLanguageNeutral(t *testing.T) {
	link := NewLink("/about", "")
	assert.Equal(t, LanguageNone, link.Language)
	assert.True(t, link.Status)
	assert.Equal(t, DefaultPriority, link.Priority)
}

func TestActor_HasCapability(t *testing.T) {
	caps := []string{"access content"}
	actor := NewActor("tester", caps)
	caps[0] = "mutated"

	assert.True(t, actor.HasCapability("access content"))
	assert.False(t, actor.HasCapability("administer languages"))
}
