package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	jwt "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/implementation/jwt"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	auth_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/auth"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth_models.User
	err   error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*auth_models.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *auth_models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return interfaces.ErrDuplicate
		}
	}
	cp := *u
	r.users[u.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*auth_models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[email]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func newTestAuthService(repo interfaces.UserRepository) (*AuthService, *jwt.Service) {
	tokens := jwt.NewService(api_models.Config{SecretKey: "secret", TokenDuration: time.Hour})
	return NewAuthService(repo, tokens, bcrypt.MinCost), tokens
}

var budi = api_models.RegisterRequest{
	Username: "budi",
	Email:    "budi@example.com",
	NoTelp:   "08123",
	Password: "rahasia",
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMemUserRepo()
	svc, _ := newTestAuthService(repo)

	require.NoError(t, svc.Register(context.Background(), budi))

	stored := repo.users[budi.Email]
	require.NotNil(t, stored)
	assert.NotEqual(t, budi.Password, stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(budi.Password)))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(newMemUserRepo())

	req := budi
	req.NoTelp = ""
	err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(newMemUserRepo())
	require.NoError(t, svc.Register(context.Background(), budi))

	again := budi
	again.Username = "budi2"
	assert.ErrorIs(t, svc.Register(context.Background(), again), ErrUserExists)
}

func TestRegisterStorageFailure(t *testing.T) {
	repo := newMemUserRepo()
	repo.err = errors.New("connection refused")
	svc, _ := newTestAuthService(repo)

	err := svc.Register(context.Background(), budi)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserExists)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLogin(t *testing.T) {
	svc, tokens := newTestAuthService(newMemUserRepo())
	require.NoError(t, svc.Register(context.Background(), budi))

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), api_models.LoginRequest{Email: budi.Email, Password: budi.Password})
		require.NoError(t, err)
		assert.Equal(t, "budi", resp.Username)

		claims, err := tokens.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "budi", claims.Username)
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := svc.Login(context.Background(), api_models.LoginRequest{Email: budi.Email})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), api_models.LoginRequest{Email: "x@example.com", Password: "p"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), api_models.LoginRequest{Email: budi.Email, Password: "salah"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, resp)
	})
}
