package entity

import (
	"errors"
	"time"
)

type PageState string

const (
	StateIntake         PageState = "intake"
	StateSuccess        PageState = "success"
	StateAdminLogin     PageState = "admin_login"
	StateAdminDashboard PageState = "admin_dashboard"
)

var (
	ErrInvalidTransition = errors.New("invalid page transition")
	ErrAlreadySubmitted  = errors.New("lead already submitted in this session")
)

// Challenge é a soma simples usada como verificação humana.
type Challenge struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (c Challenge) Answer() int {
	return c.A + c.B
}

// Session is the per-browser state. It is never persisted.
type Session struct {
	ID                   string
	State                PageState
	HasSubmitted         bool
	IsAdminAuthenticated bool
	PendingChallenge     *Challenge
	LastSeen             time.Time
}

func NewSession(id string) *Session {
	s := &Session{ID: id}
	s.Reset()
	return s
}

// Reset returns the session to a fresh intake state, keeping its ID.
func (s *Session) Reset() {
	s.State = StateIntake
	s.HasSubmitted = false
	s.IsAdminAuthenticated = false
	s.PendingChallenge = nil
	s.LastSeen = time.Now()
}

// CanSubmit reports whether the intake form may be submitted. Success is sticky.
func (s *Session) CanSubmit() error {
	switch s.State {
	case StateIntake:
		return nil
	case StateSuccess:
		return ErrAlreadySubmitted
	default:
		return ErrInvalidTransition
	}
}

func (s *Session) SubmitSucceeded() error {
	if err := s.CanSubmit(); err != nil {
		return err
	}
	s.State = StateSuccess
	s.HasSubmitted = true
	s.PendingChallenge = nil
	return nil
}

func (s *Session) RequestAdminLogin() error {
	switch s.State {
	case StateIntake, StateSuccess:
		s.State = StateAdminLogin
		return nil
	case StateAdminLogin:
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Login applies the outcome of a credential check. A mismatch keeps the prompt.
func (s *Session) Login(ok bool) error {
	if s.State != StateAdminLogin {
		return ErrInvalidTransition
	}
	if ok {
		s.State = StateAdminDashboard
		s.IsAdminAuthenticated = true
	}
	return nil
}

func (s *Session) CancelLogin() error {
	if s.State != StateAdminLogin {
		return ErrInvalidTransition
	}
	if s.HasSubmitted {
		s.State = StateSuccess
	} else {
		s.State = StateIntake
	}
	return nil
}

func (s *Session) Logout() error {
	if s.State != StateAdminDashboard {
		return ErrInvalidTransition
	}
	s.Reset()
	return nil
}

func (s *Session) IsAdmin() bool {
	return s.State == StateAdminDashboard && s.IsAdminAuthenticated
}
