package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"flight-board/internal/domain"
	"flight-board/internal/repository"
)

// Keys under which the session is persisted.
const (
	ProfileKey  = "user-profile"
	SettingsKey = "user-settings"
)

// Manager is the in-memory authority over the current profile and settings.
// It is safe for concurrent use.
type Manager struct {
	prefs  repository.PreferenceRepository
	logger *logrus.Logger

	mu       sync.RWMutex
	profile  domain.Profile
	settings domain.Settings

	events *broker
}

func NewManager(prefs repository.PreferenceRepository, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		prefs:    prefs,
		logger:   logger,
		profile:  domain.NewProfile(),
		settings: domain.DefaultSettings(),
		events:   newBroker(),
	}
}

// NewNamedManager returns a manager whose profile starts with the given name.
func NewNamedManager(prefs repository.PreferenceRepository, logger *logrus.Logger, name string) *Manager {
	m := NewManager(prefs, logger)
	m.profile = domain.NamedProfile(name)
	return m
}

func (m *Manager) Profile() domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

func (m *Manager) Settings() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Manager) SetProfile(p domain.Profile) {
	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()
	m.publish(EventProfileChanged)
}

func (m *Manager) SetSettings(s domain.Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	m.publish(EventSettingsChanged)
}

func (m *Manager) SetUserName(name string) {
	m.SetProfile(domain.NamedProfile(name))
}

func (m *Manager) SetRememberUser(remember bool) {
	m.mu.Lock()
	m.settings.RememberUser = remember
	m.mu.Unlock()
	m.publish(EventSettingsChanged)
}

func (m *Manager) IsRegistered() bool {
	return m.Profile().IsRegistered()
}

func (m *Manager) IsUserNameValid() bool {
	return m.Profile().IsUserNameValid()
}

// PersistProfile writes the profile only while remember-me is on.
func (m *Manager) PersistProfile(ctx context.Context) {
	m.mu.RLock()
	profile, remember := m.profile, m.settings.RememberUser
	m.mu.RUnlock()

	if !remember {
		return
	}
	m.write(ctx, ProfileKey, profile)
}

func (m *Manager) PersistSettings(ctx context.Context) {
	m.write(ctx, SettingsKey, m.Settings())
}

// Load replaces the in-memory profile and settings with their persisted values.
// A missing or undecodable entry keeps the current value.
func (m *Manager) Load(ctx context.Context) {
	var profile domain.Profile
	if m.read(ctx, ProfileKey, &profile) {
		m.SetProfile(profile)
	}

	var settings domain.Settings
	if m.read(ctx, SettingsKey, &settings) {
		m.SetSettings(settings)
	}
}

// Clear removes the persisted profile. The in-memory profile and the persisted
// settings are left alone.
func (m *Manager) Clear(ctx context.Context) {
	if err := m.prefs.Remove(ctx, ProfileKey); err != nil {
		m.logger.WithFields(logrus.Fields{"op": "clear", "key": ProfileKey}).
			WithError(err).Warn("remove persisted profile")
	}
}

// RegisterUser stores the profile when the user asked to be remembered and drops
// any previously stored profile otherwise.
func (m *Manager) RegisterUser(ctx context.Context) {
	if m.Settings().RememberUser {
		m.PersistProfile(ctx)
		return
	}
	m.Clear(ctx)
}

func (m *Manager) write(ctx context.Context, key string, v any) {
	log := m.logger.WithFields(logrus.Fields{"op": "persist", "key": key})

	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("encode preference, write skipped")
		return
	}
	if err := m.prefs.Set(ctx, key, data); err != nil {
		log.WithError(err).Warn("write preference")
	}
}

func (m *Manager) read(ctx context.Context, key string, v any) bool {
	log := m.logger.WithFields(logrus.Fields{"op": "load", "key": key})

	data, err := m.prefs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrPreferenceNotFound) {
			log.Debug("no persisted value")
		} else {
			log.WithError(err).Warn("read preference")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.WithError(err).Warn("decode preference, keeping current value")
		return false
	}
	return true
}

func (m *Manager) publish(kind EventKind) {
	m.mu.RLock()
	ev := Event{Kind: kind, Profile: m.profile, Settings: m.settings}
	m.mu.RUnlock()
	m.events.publish(ev)
}
