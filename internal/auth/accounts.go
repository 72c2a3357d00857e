// Package auth creates actors, logs them in and checks their capabilities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
)

const (
	AdministerLanguages         = "administer languages"
	AccessAdministrationPages   = "access administration pages"
	AdministerSiteConfiguration = "administer site configuration"
	AdministerXMLSitemap        = "administer xmlsitemap"
	AccessContent               = "access content"
)

var knownCapabilities = map[string]bool{
	AdministerLanguages:         true,
	AccessAdministrationPages:   true,
	AdministerSiteConfiguration: true,
	AdministerXMLSitemap:        true,
	AccessContent:               true,
}

var (
	ErrUnknownCapability = errors.New("unknown capability")
	ErrUnknownActor      = errors.New("unknown actor")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidSession    = errors.New("invalid session")
)

type Session struct {
	Token     string
	Actor     *models.Actor
	CreatedAt time.Time
}

func (s *Session) Can(capability string) bool {
	return s != nil && s.Actor != nil && s.Actor.HasCapability(capability)
}

// Require fails with ErrPermissionDenied naming the first missing capability.
func (s *Session) Require(capabilities ...string) error {
	for _, c := range capabilities {
		if !s.Can(c) {
			return fmt.Errorf("%w: missing %q", ErrPermissionDenied, c)
		}
	}
	return nil
}

type Accounts struct {
	store  storage.ActorStore
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewAccounts(store storage.ActorStore, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{
		store:    store,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (a *Accounts) CreateActor(ctx context.Context, name string, capabilities []string) (*models.Actor, error) {
	if err := checkCapabilities(capabilities); err != nil {
		return nil, err
	}

	actor := models.NewActor(name, capabilities)
	if err := a.store.CreateActor(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to create actor %s: %w", name, err)
	}

	a.logger.Info("actor created", zap.String("name", name), zap.Strings("capabilities", capabilities))
	return actor, nil
}

// EnsureActor returns the actor named name, creating it when none exists.
// An existing actor gets its capabilities replaced when they differ.
func (a *Accounts) EnsureActor(ctx context.Context, name string, capabilities []string) (*models.Actor, error) {
	if err := checkCapabilities(capabilities); err != nil {
		return nil, err
	}

	existing, err := a.store.GetActorByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up actor %s: %w", name, err)
	}
	if existing == nil {
		return a.CreateActor(ctx, name, capabilities)
	}

	if !slices.Equal(existing.Capabilities, capabilities) {
		existing.Capabilities = slices.Clone(capabilities)
		if err := a.store.UpdateActorCapabilities(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update actor %s: %w", name, err)
		}
		a.logger.Info("actor capabilities updated", zap.String("name", name), zap.Strings("capabilities", capabilities))
	}

	return existing, nil
}

// LoginByName opens a session for the stored actor named name.
func (a *Accounts) LoginByName(ctx context.Context, name string) (*Session, error) {
	actor, err := a.store.GetActorByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up actor %s: %w", name, err)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, name)
	}
	return a.Login(ctx, actor)
}

// Login opens a session for a stored actor. Capabilities are taken from
// storage, not from the passed value.
func (a *Accounts) Login(ctx context.Context, actor *models.Actor) (*Session, error) {
	if actor == nil {
		return nil, ErrUnknownActor
	}

	stored, err := a.store.GetActor(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %s: %w", actor.ID, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, actor.ID)
	}

	session := &Session{
		Token:     uuid.NewString(),
		Actor:     stored,
		CreatedAt: time.Now(),
	}

	a.mu.Lock()
	a.sessions[session.Token] = session
	a.mu.Unlock()

	a.logger.Debug("actor logged in", zap.String("name", stored.Name))
	return session, nil
}

func (a *Accounts) Session(token string) (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	session, ok := a.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	return session, nil
}

func (a *Accounts) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

func checkCapabilities(capabilities []string) error {
	for _, c := range capabilities {
		if !knownCapabilities[c] {
			return fmt.Errorf("%w: %q", ErrUnknownCapability, c)
		}
	}
	return nil
}
