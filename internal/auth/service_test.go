package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/internal/users"
	pkgAuth "github.com/dmarrez/storefront-backend/pkg/auth"
	"github.com/dmarrez/storefront-backend/pkg/auth/session"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	"github.com/dmarrez/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/security"
)

type stubUserRepo struct {
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	byID       map[uuid.UUID]*models.User
	created    []users.CreateUserDTO
	lastLogin  map[uuid.UUID]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byUsername: map[string]*models.User{},
		byEmail:    map[string]*models.User{},
		byID:       map[uuid.UUID]*models.User{},
		lastLogin:  map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepo) add(u *models.User) {
	s.byUsername[u.Username] = u
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.created = append(s.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := s.byUsername[username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

type stubBasketMerger struct {
	calls [][2]string
	err   error
}

func (s *stubBasketMerger) MergeOnLogin(_ context.Context, username, anonymousToken string) error {
	s.calls = append(s.calls, [2]string{username, anonymousToken})
	return s.err
}

type stubSessionManager struct {
	generated []string
	rotateErr error
	revoked   []string
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "rotated-" + oldAccessID, "refresh-rotated", nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret!",
		Issuer:                 "storefront-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 7 * 24 * 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *stubUserRepo, *stubBasketMerger, *stubSessionManager) {
	t.Helper()
	repo := newStubUserRepo()
	merger := &stubBasketMerger{}
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		BasketMerger:   merger,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc, repo, merger, sessions
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         enums.UserRoleMember,
	}
	repo.add(user)
	return user
}

func TestRegisterCreatesMember(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Username: "  Alice ",
		Email:    "Alice@Example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", dto.Username)
	assert.Equal(t, "alice@example.com", dto.Email)
	assert.Equal(t, enums.UserRoleMember, dto.Role)

	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "hunter2hunter2", repo.created[0].PasswordHash)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedUser(t, repo, "bob", "password123")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "bob",
		Email:    "other@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedUser(t, repo, "carol", "password123")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "carol2",
		Email:    "carol@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestLoginIssuesTokensAndMergesBasket(t *testing.T) {
	svc, repo, merger, sessions := newTestService(t)
	user := seedUser(t, repo, "dave", "password123")

	resp, err := svc.Login(context.Background(), LoginRequest{
		Username:       "Dave",
		Password:       "password123",
		AnonymousToken: "anon-token-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "dave", resp.User.Username)

	require.Len(t, merger.calls, 1)
	assert.Equal(t, "dave", merger.calls[0][0])
	assert.Equal(t, "anon-token-1", merger.calls[0][1])

	require.Len(t, sessions.generated, 1)
	assert.NotZero(t, repo.lastLogin[user.ID])

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "dave", claims.Username)
	assert.Equal(t, sessions.generated[0], claims.ID)
}

func TestLoginSkipsMergeWithoutAnonymousToken(t *testing.T) {
	svc, repo, merger, _ := newTestService(t)
	seedUser(t, repo, "erin", "password123")

	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "erin",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Empty(t, merger.calls)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedUser(t, repo, "frank", "password123")

	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "frank",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "ghost",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesPair(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	user := seedUser(t, repo, "grace", "password123")

	oldAccessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		JTI:      oldAccessID,
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "refresh-" + oldAccessID,
	})
	require.NoError(t, err)

	assert.Equal(t, "refresh-rotated", resp.RefreshToken)
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "rotated-"+oldAccessID, claims.ID)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	svc, repo, _, sessions := newTestService(t)
	user := seedUser(t, repo, "heidi", "password123")
	sessions.rotateErr = session.ErrInvalidRefreshToken

	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "bogus",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRejectsGarbageAccessToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _, sessions := newTestService(t)

	require.NoError(t, svc.Logout(context.Background(), "access-1"))
	assert.Equal(t, []string{"access-1"}, sessions.revoked)

	err := svc.Logout(context.Background(), " ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMeReturnsProfile(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	user := seedUser(t, repo, "ivan", "password123")

	dto, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivan", dto.Username)

	_, err = svc.Me(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Me(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
