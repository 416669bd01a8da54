// Package session holds the authentication state of the client and the view it selects.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
)

const defaultLoginFailure = "Login failed"

// ErrMissingCredentials is returned before any network call when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// AuthError is a rejected login. Detail is shown on the login view.
type AuthError struct {
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	return e.Detail
}

// ConnectionError is a login that never reached the service.
type ConnectionError struct {
	BaseURL string
	Err     error
}

func (e *ConnectionError) Error() string {
	return "Connection error. Make sure the backend server is running on " + e.BaseURL
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Authenticator is the remote half of login.
type Authenticator interface {
	Login(ctx context.Context, creds types.Credentials) (*types.LoginResponse, error)
}

// Store exclusively owns the Session. Other components read copies.
type Store struct {
	mu       sync.RWMutex
	session  types.Session
	auth     Authenticator
	baseURL  string
	watchers []func(types.Session)
}

// NewStore returns an unauthenticated store. baseURL only feeds the connectivity message.
func NewStore(auth Authenticator, baseURL string) *Store {
	return &Store{auth: auth, baseURL: baseURL}
}

// OnChange registers fn to run after every login or logout, outside the store lock.
func (s *Store) OnChange(fn func(types.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Login authenticates against the service and establishes the session.
func (s *Store) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return types.Session{}, ErrMissingCredentials
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		var svcErr *transfer.ServiceError
		switch {
		case errors.As(err, &svcErr):
			detail := svcErr.Detail
			if detail == "" {
				detail = defaultLoginFailure
			}
			tool.DefaultLogger.Warnf("Login rejected for %s: %s", creds.Email, detail)
			return types.Session{}, &AuthError{StatusCode: svcErr.StatusCode, Detail: detail}
		case transfer.IsConnectivity(err):
			tool.DefaultLogger.Errorf("Login connection error: %v", err)
			return types.Session{}, &ConnectionError{BaseURL: s.baseURL, Err: err}
		default:
			return types.Session{}, &AuthError{Detail: defaultLoginFailure}
		}
	}

	sess := types.Session{
		IsAuthenticated: true,
		Token:           resp.Token,
		UserName:        resp.UserName,
		Email:           creds.Email,
	}
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.notify(sess)
	return sess, nil
}

// Logout clears the session locally. No server call is made.
func (s *Store) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.session.IsAuthenticated
	s.session = types.Session{}
	s.mu.Unlock()
	if wasAuthenticated {
		tool.DefaultLogger.Info("Logged out")
	}
	s.notify(types.Session{})
}

func (s *Store) Current() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) View() types.View {
	return s.Current().View()
}

// Token returns the bearer token, empty when logged out.
func (s *Store) Token() string {
	return s.Current().Token
}

func (s *Store) notify(sess types.Session) {
	s.mu.RLock()
	watchers := append([]func(types.Session){}, s.watchers...)
	s.mu.RUnlock()
	for _, fn := range watchers {
		fn(sess)
	}
}
