package service

import (
	"context"
	"errors"

	"flight-board/internal/domain"
	"flight-board/internal/session"
)

// ErrInvalidUserName indicates the name is too short to register with.
var ErrInvalidUserName = errors.New("user name must be at least 3 characters")

// Session is a read-only snapshot of the active session.
type Session struct {
	Profile       domain.Profile
	Settings      domain.Settings
	Registered    bool
	UserNameValid bool
}

// UserService describes the registration workflow driven by the presentation layer.
type UserService interface {
	Register(ctx context.Context, name string, rememberUser bool) (domain.Profile, error)
	UpdateName(name string) Session
	UpdateRememberUser(ctx context.Context, remember bool) Session
	Current() Session
	Restore(ctx context.Context) Session
	Forget(ctx context.Context) Session
}

type userService struct {
	session *session.Manager
}

func NewUserService(manager *session.Manager) UserService {
	return &userService{session: manager}
}

func (s *userService) Register(ctx context.Context, name string, rememberUser bool) (domain.Profile, error) {
	candidate := domain.NamedProfile(name)
	if !candidate.IsUserNameValid() {
		return domain.Profile{}, ErrInvalidUserName
	}

	s.session.SetProfile(candidate)
	s.session.SetRememberUser(rememberUser)
	s.session.PersistSettings(ctx)
	s.session.RegisterUser(ctx)

	return s.session.Profile(), nil
}

// UpdateName mirrors typing into the name field: the session changes, nothing is persisted.
func (s *userService) UpdateName(name string) Session {
	s.session.SetUserName(name)
	return s.Current()
}

func (s *userService) UpdateRememberUser(ctx context.Context, remember bool) Session {
	s.session.SetRememberUser(remember)
	s.session.PersistSettings(ctx)
	return s.Current()
}

func (s *userService) Current() Session {
	profile := s.session.Profile()
	return Session{
		Profile:       profile,
		Settings:      s.session.Settings(),
		Registered:    profile.IsRegistered(),
		UserNameValid: profile.IsUserNameValid(),
	}
}

func (s *userService) Restore(ctx context.Context) Session {
	s.session.Load(ctx)
	return s.Current()
}

func (s *userService) Forget(ctx context.Context) Session {
	s.session.Clear(ctx)
	return s.Current()
}
