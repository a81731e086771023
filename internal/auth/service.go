// Package auth provides email/password accounts and JWT-backed sessions.
// Every token carries a session ID whose server-side record must still exist,
// so signing out revokes a token before it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTTL        = 24 * 7 * time.Hour
	MinPasswordLength = 6
)

// Error codes carried by AuthError.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailTaken         = "email_taken"
	CodeInvalidEmail       = "invalid_email"
	CodeWeakPassword       = "weak_password"
	CodeInvalidToken       = "invalid_token"
	CodeSessionNotFound    = "session_not_found"
)

// AuthError is a failure the caller can act on, such as a wrong password.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string { return e.Message }

func authErr(code, msg string) *AuthError {
	return &AuthError{Code: code, Message: msg}
}

// IsAuthError reports whether err is an AuthError, optionally with one of codes.
func IsAuthError(err error, codes ...string) bool {
	var ae *AuthError
	if !errors.As(err, &ae) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if ae.Code == c {
			return true
		}
	}
	return false
}

// Users is the subset of the store the service needs.
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}

// Session is an authenticated session as handed to clients.
type Session struct {
	Token     string      `json:"access_token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
	ID        string      `json:"-"`
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventRefreshed EventType = "refreshed"
)

// Event describes a session change delivered to subscribers.
type Event struct {
	Type      EventType
	UserID    uuid.UUID
	SessionID string
}

type claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type Service struct {
	users      Users
	sessions   SessionStore
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	log        *slog.Logger

	// Now and NewSessionID can be replaced in tests.
	Now          func() time.Time
	NewSessionID func() string

	// dummyHash is compared against when the email is unknown, so a miss
	// costs as much as a wrong password.
	dummyHash []byte
	compare   func(hash, password []byte) error

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func NewService(users Users, sessions SessionStore, secret []byte, ttl time.Duration, bcryptCost int, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("auth: generating dummy hash: %v", err))
	}
	return &Service{
		users:        users,
		sessions:     sessions,
		secret:       secret,
		ttl:          ttl,
		bcryptCost:   bcryptCost,
		log:          log,
		Now:          time.Now,
		NewSessionID: uuid.NewString,
		dummyHash:    dummy,
		compare:      bcrypt.CompareHashAndPassword,
		subs:         make(map[int]func(Event)),
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// SignUp creates an account. It does not sign the user in.
func (s *Service) SignUp(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return models.User{}, authErr(CodeInvalidEmail, "invalid email address")
	}
	if len(password) < MinPasswordLength {
		return models.User{}, authErr(CodeWeakPassword,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.User{}, authErr(CodeEmailTaken, "email already registered")
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info("user signed up", "user_id", u.ID)
	return u, nil
}

// SignIn checks credentials and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = s.compare(s.dummyHash, []byte(password))
			return Session{}, authErr(CodeInvalidCredentials, "invalid email or password")
		}
		return Session{}, fmt.Errorf("looking up user: %w", err)
	}
	if err := s.compare([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, authErr(CodeInvalidCredentials, "invalid email or password")
	}

	sess, err := s.issue(ctx, u, s.NewSessionID())
	if err != nil {
		return Session{}, err
	}
	s.emit(Event{Type: EventSignedIn, UserID: u.ID, SessionID: sess.ID})
	return sess, nil
}

// GetSession resolves a token to its live session.
func (s *Service) GetSession(ctx context.Context, token string) (Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}
	u, err := s.lookup(ctx, c)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: c.ExpiresAt.Time, User: u, ID: c.SessionID}, nil
}

// Refresh issues a new token for the same session and extends its lifetime.
func (s *Service) Refresh(ctx context.Context, token string) (Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}
	u, err := s.lookup(ctx, c)
	if err != nil {
		return Session{}, err
	}

	sess, err := s.issue(ctx, u, c.SessionID)
	if err != nil {
		return Session{}, err
	}
	s.emit(Event{Type: EventRefreshed, UserID: u.ID, SessionID: sess.ID})
	return sess, nil
}

// SignOut deletes the session behind token. Any copy of the token stops
// working. A token whose session is already gone fails with
// CodeSessionNotFound and emits nothing.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	u, err := s.lookup(ctx, c)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, c.SessionID); err != nil {
		return err
	}
	s.emit(Event{Type: EventSignedOut, UserID: u.ID, SessionID: c.SessionID})
	return nil
}

// Subscribe registers fn for session changes. Events are delivered
// synchronously on the goroutine that caused them. Call the returned func to
// stop receiving events.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) emit(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (s *Service) issue(ctx context.Context, u models.User, sessionID string) (Session, error) {
	now := s.Now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID: sessionID,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing token: %w", err)
	}
	if err := s.sessions.Save(ctx, sessionID, u.ID, s.ttl); err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ExpiresAt: exp.Truncate(time.Second), User: u, ID: sessionID}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, authErr(CodeInvalidToken, "invalid or expired token")
	}
	if c.SessionID == "" {
		return nil, authErr(CodeInvalidToken, "token has no session")
	}
	return c, nil
}

// lookup checks the session record and loads its user.
func (s *Service) lookup(ctx context.Context, c *claims) (models.User, error) {
	userID, err := s.sessions.Load(ctx, c.SessionID)
	if err != nil {
		if errors.Is(err, errNoSession) {
			return models.User{}, authErr(CodeSessionNotFound, "session not found")
		}
		return models.User{}, err
	}
	if userID.String() != c.Subject {
		return models.User{}, authErr(CodeInvalidToken, "token does not match session")
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, authErr(CodeSessionNotFound, "user no longer exists")
		}
		return models.User{}, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}
