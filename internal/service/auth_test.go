package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/auth"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/repository"
	"github.com/atinyakov/GophNotes/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	ExistsFunc     func(ctx context.Context, email, username string) (bool, error)
	CreateFunc     func(ctx context.Context, u *models.User) error
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*models.User, error)
}

func (m *mockUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	return m.ExistsFunc(ctx, email, username)
}
func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	return m.CreateFunc(ctx, u)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

// memUsers is an in-memory UserRepository with unique email and username.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.User
}

func (r *memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.rows = append(r.rows, *u)
	return nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubHasher struct {
	hashErr   error
	verifyErr error
	verified  int
}

func (h *stubHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + password, nil
}

func (h *stubHasher) Verify(password, hash string) (bool, error) {
	h.verified++
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return hash == "hashed:"+password, nil
}

type stubIssuer struct {
	err error
}

func (s *stubIssuer) Issue(id models.Identity) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + id.Username, nil
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newRealAuthService(repo UserRepository) (*AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	return NewAuthService(repo, security.NewPasswordHasherWithCost(bcrypt.MinCost), tokens, nil), tokens
}

func TestSignupThenLogin(t *testing.T) {
	repo := &memUsers{}
	svc, tokens := newRealAuthService(repo)
	ctx := context.Background()

	pub, err := svc.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pub.ID)
	assert.Equal(t, "alice", pub.Username)

	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))

	res, err := svc.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, pub, res.User)

	id, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: 1, Email: "alice@example.com", Username: "alice"}, id)
}

func TestSignup_DuplicateEmailOrUsername(t *testing.T) {
	repo := &memUsers{}
	svc, _ := newRealAuthService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	for _, tc := range []struct{ username, email string }{
		{"alice", "other@example.com"},
		{"bob", "alice@example.com"},
		{"alice", "alice@example.com"},
	} {
		_, err := svc.Signup(ctx, tc.username, tc.email, "whatever1")
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "%+v", tc)
		assert.EqualError(t, err, MsgUserExists)
	}
	assert.Len(t, repo.rows, 1)
}

func TestSignup_RaceOnInsertIsConflict(t *testing.T) {
	repo := &mockUserRepo{
		ExistsFunc: func(context.Context, string, string) (bool, error) { return false, nil },
		CreateFunc: func(context.Context, *models.User) error { return repository.ErrDuplicate },
	}
	svc := NewAuthService(repo, &stubHasher{}, &stubIssuer{}, nil)

	_, err := svc.Signup(context.Background(), "alice", "a@b.io", "hunter22")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSignup_PasswordByteLimit(t *testing.T) {
	repo := &memUsers{}
	svc, _ := newRealAuthService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "max", "max@example.com", strings.Repeat("a", security.MaxPasswordBytes))
	require.NoError(t, err)

	for name, pw := range map[string]string{
		"ascii":     strings.Repeat("a", security.MaxPasswordBytes+1),
		"multibyte": strings.Repeat("é", 37),
	} {
		_, err := svc.Signup(ctx, "u"+name, name+"@example.com", pw)
		require.Error(t, err, name)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), name)

		var ae *apperr.Error
		require.True(t, errors.As(err, &ae), name)
		assert.Equal(t, []apperr.FieldError{{Field: "password", Rule: "max"}}, ae.Fields, name)
	}
	assert.Len(t, repo.rows, 1)
}

func TestSignup_InternalErrors(t *testing.T) {
	dbErr := errors.New("db down")
	tests := []struct {
		name   string
		repo   *mockUserRepo
		hasher *stubHasher
	}{
		{
			name:   "exists check fails",
			repo:   &mockUserRepo{ExistsFunc: func(context.Context, string, string) (bool, error) { return false, dbErr }},
			hasher: &stubHasher{},
		},
		{
			name:   "hash fails",
			repo:   &mockUserRepo{ExistsFunc: func(context.Context, string, string) (bool, error) { return false, nil }},
			hasher: &stubHasher{hashErr: errors.New("too long")},
		},
		{
			name: "insert fails",
			repo: &mockUserRepo{
				ExistsFunc: func(context.Context, string, string) (bool, error) { return false, nil },
				CreateFunc: func(context.Context, *models.User) error { return dbErr },
			},
			hasher: &stubHasher{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tt.hasher, &stubIssuer{}, nil)
			_, err := svc.Signup(context.Background(), "alice", "a@b.io", "hunter22")
			assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		})
	}
}

func TestSignup_NeverLogsPassword(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := NewAuthService(&memUsers{}, &stubHasher{}, &stubIssuer{}, zap.New(core))

	_, err := svc.Signup(context.Background(), "alice", "a@b.io", "very-secret-pw")
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, "very-secret-pw")
		}
	}
}

func TestLogin_UnknownEmailAndWrongPasswordAreIdentical(t *testing.T) {
	repo := &memUsers{}
	hasher := &stubHasher{}
	svc := NewAuthService(repo, hasher, &stubIssuer{}, nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "alice@example.com", "nope")
	verifiedAfterWrong := hasher.verified
	_, errMissing := svc.Login(ctx, "nobody@example.com", "nope")

	require.Error(t, errWrong)
	require.Error(t, errMissing)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(errWrong))
	assert.Equal(t, apperr.KindOf(errWrong), apperr.KindOf(errMissing))
	assert.Equal(t, errWrong.Error(), errMissing.Error())
	assert.Equal(t, MsgInvalidCredentials, errMissing.Error())
	assert.Equal(t, verifiedAfterWrong+1, hasher.verified, "unknown email must still run a comparison")
}

func TestLogin_InternalErrors(t *testing.T) {
	user := &models.User{ID: 3, Email: "a@b.io", Username: "alice", PasswordHash: "hashed:pw"}
	found := func(context.Context, string) (*models.User, error) { return user, nil }

	tests := []struct {
		name   string
		repo   *mockUserRepo
		hasher *stubHasher
		issuer *stubIssuer
	}{
		{
			name: "lookup fails",
			repo: &mockUserRepo{GetByEmailFunc: func(context.Context, string) (*models.User, error) {
				return nil, errors.New("db down")
			}},
			hasher: &stubHasher{},
			issuer: &stubIssuer{},
		},
		{
			name:   "corrupt hash",
			repo:   &mockUserRepo{GetByEmailFunc: found},
			hasher: &stubHasher{verifyErr: errors.New("hash too short")},
			issuer: &stubIssuer{},
		},
		{
			name:   "sign fails",
			repo:   &mockUserRepo{GetByEmailFunc: found},
			hasher: &stubHasher{},
			issuer: &stubIssuer{err: errors.New("no key")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tt.hasher, tt.issuer, nil)
			_, err := svc.Login(context.Background(), "a@b.io", "pw")
			assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		})
	}
}

func TestProfile(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := &mockUserRepo{GetByIDFunc: func(_ context.Context, id int64) (*models.User, error) {
		switch id {
		case 1:
			return &models.User{ID: 1, Username: "alice", Email: "a@b.io", PasswordHash: "x", CreatedAt: created}, nil
		case 2:
			return nil, repository.ErrNotFound
		default:
			return nil, errors.New("db down")
		}
	}}
	svc := NewAuthService(repo, &stubHasher{}, &stubIssuer{}, nil)
	ctx := context.Background()

	pub, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &models.PublicUser{ID: 1, Username: "alice", Email: "a@b.io", CreatedAt: created}, pub)

	_, err = svc.Profile(ctx, 2)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, MsgUserNotFound)

	_, err = svc.Profile(ctx, 3)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
