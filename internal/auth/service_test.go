package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret-test-secret")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

// memUsers is an in-memory Users.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, email, hash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return models.User{}, &storage.PersistenceError{Op: "inserting user", Err: storage.ErrDuplicate}
		}
	}
	u := models.User{ID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memUsers) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(newMemUsers(), NewCacheStore(1024*1024), testSecret, time.Hour, bcrypt.MinCost, log)
}

func TestService_SignUpSignIn(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	u, err := s.SignUp(ctx, "  Lifter@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "lifter@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	sess, err := s.SignIn(ctx, "lifter@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, u.ID, sess.User.ID)

	got, err := s.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.User.ID)
	assert.Equal(t, sess.ID, got.ID)
}

func TestService_SignUpRejects(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.SignUp(ctx, "a@example.com", "12345")
	assert.True(t, IsAuthError(err, CodeWeakPassword), "err = %v", err)

	_, err = s.SignUp(ctx, "not-an-email", "123456")
	assert.True(t, IsAuthError(err, CodeInvalidEmail), "err = %v", err)

	_, err = s.SignUp(ctx, "a@example.com", "123456")
	require.NoError(t, err)
	_, err = s.SignUp(ctx, "A@example.com", "abcdef")
	assert.True(t, IsAuthError(err, CodeEmailTaken), "err = %v", err)
}

func TestService_SignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	sess, err := s.SignIn(ctx, "a@example.com", "wrong-pass")
	assert.True(t, IsAuthError(err, CodeInvalidCredentials), "err = %v", err)
	assert.Empty(t, sess.Token)

	_, err = s.SignIn(ctx, "nobody@example.com", "secret1")
	assert.True(t, IsAuthError(err, CodeInvalidCredentials), "err = %v", err)
}

func TestService_SignInUnknownEmailComparesHash(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	var hashes [][]byte
	s.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := s.SignIn(ctx, "nobody@example.com", "secret1")
	assert.True(t, IsAuthError(err, CodeInvalidCredentials), "err = %v", err)
	require.Len(t, hashes, 1)
	assert.Equal(t, s.dummyHash, hashes[0])

	cost, err := bcrypt.Cost(s.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestService_SignOutTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	var signedOut int
	s.Subscribe(func(e Event) {
		if e.Type == EventSignedOut {
			signedOut++
		}
	})

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err := s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx, sess.Token))
	err = s.SignOut(ctx, sess.Token)
	assert.True(t, IsAuthError(err, CodeSessionNotFound), "err = %v", err)
	assert.Equal(t, 1, signedOut)
}

func TestService_SignOutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err := s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx, sess.Token))

	_, err = s.GetSession(ctx, sess.Token)
	assert.True(t, IsAuthError(err, CodeSessionNotFound), "err = %v", err)
}

func TestService_ExpiredAndForgedTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return start }

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err := s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	s.Now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = s.GetSession(ctx, sess.Token)
	assert.True(t, IsAuthError(err, CodeInvalidToken), "err = %v", err)

	s.Now = func() time.Time { return start }
	other := NewService(newMemUsers(), NewCacheStore(1024*1024), []byte("another-secret-entirely"), time.Hour, bcrypt.MinCost, s.log)
	_, err = other.GetSession(ctx, sess.Token)
	assert.True(t, IsAuthError(err, CodeInvalidToken), "err = %v", err)

	_, err = s.GetSession(ctx, "garbage")
	assert.True(t, IsAuthError(err, CodeInvalidToken), "err = %v", err)
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return start }

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err := s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	s.Now = func() time.Time { return start.Add(30 * time.Minute) }
	refreshed, err := s.Refresh(ctx, sess.Token)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, refreshed.Token)
	assert.Equal(t, sess.ID, refreshed.ID)
	assert.True(t, refreshed.ExpiresAt.After(sess.ExpiresAt))

	// old token expired, new one still valid
	s.Now = func() time.Time { return start.Add(75 * time.Minute) }
	_, err = s.GetSession(ctx, sess.Token)
	assert.Error(t, err)
	_, err = s.GetSession(ctx, refreshed.Token)
	assert.NoError(t, err)
}

func TestService_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	var events []EventType
	unsubscribe := s.Subscribe(func(e Event) {
		events = append(events, e.Type)
	})

	_, err := s.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err := s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	sess, err = s.Refresh(ctx, sess.Token)
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx, sess.Token))

	assert.Equal(t, []EventType{EventSignedIn, EventRefreshed, EventSignedOut}, events)

	unsubscribe()
	unsubscribe()
	_, err = s.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestRedisStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	store := NewRedisStore(rdb)
	ctx := context.Background()
	userID := uuid.New()
	key := sessionKeyPrefix + "sid-1"

	mock.ExpectSet(key, userID.String(), time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, "sid-1", userID, time.Hour))

	mock.ExpectGet(key).SetVal(userID.String())
	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.Delete(ctx, "sid-1"))

	mock.ExpectGet(key).RedisNil()
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, errNoSession)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore(t *testing.T) {
	store := NewCacheStore(1024 * 1024)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Save(ctx, "sid-1", userID, time.Hour))
	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, errNoSession)
}
