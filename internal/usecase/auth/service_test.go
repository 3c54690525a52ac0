package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nutrisync/internal/domain/user"
)

type memUserRepo struct {
	byID      map[uuid.UUID]user.User
	createErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[uuid.UUID]user.User)}
}

func (r *memUserRepo) Create(ctx context.Context, u user.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memUserRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func TestRegister_NormalizesEmailAndHashesPassword(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), RegisterInput{Email: "  Alice@Example.COM ", Password: "correct-horse"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	stored := repo.byID[u.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := NewService(newMemUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "A@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestLogin_Succeeds(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo)

	registered, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)

	u, err := svc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.Empty(t, u.PasswordHash)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewService(newMemUserRepo())

	_, err := svc.Login(context.Background(), LoginInput{Email: "missing@example.com", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
