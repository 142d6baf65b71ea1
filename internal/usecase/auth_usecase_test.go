package usecase

import (
	"context"
	"testing"
	"time"

	"clinic-booking/config"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminRepo struct {
	admins map[string]*entity.AdminUser
}

func (r *fakeAdminRepo) FindByEmail(_ context.Context, email string) (*entity.AdminUser, error) {
	return r.admins[email], nil
}

func (r *fakeAdminRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	for _, a := range r.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAdminRepo) FindAllEmails(context.Context) ([]string, error) {
	var out []string
	for email := range r.admins {
		out = append(out, email)
	}
	return out, nil
}

func newAuthFixture(t *testing.T) (*miniredis.Miniredis, *fakeAuditRepo, *jwt.JWTService, AuthUsecase, *entity.AdminUser) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &entity.AdminUser{ID: uuid.New(), Email: "admin@clinic.test", Password: string(hash)}

	audit := &fakeAuditRepo{}
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})
	uc := NewAuthUsecase(newTestLogger(), &fakeAdminRepo{admins: map[string]*entity.AdminUser{admin.Email: admin}},
		newTestAuditService(audit), jwtService, client)
	return mr, audit, jwtService, uc, admin
}

func TestAuth_LoginStoresTokenAndLogoutRevokes(t *testing.T) {
	mr, audit, jwtService, uc, admin := newAuthFixture(t)
	ctx := context.Background()

	token, err := uc.Login(ctx, &dto.LoginRequest{Email: admin.Email, Password: "s3cret"})
	require.NoError(t, err)
	assert.EqualValues(t, 3600, token.ExpiresIn)

	claims, err := jwtService.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	key := jwt.RevocationKey(admin.ID, claims.TokenID)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	require.NoError(t, uc.Logout(ctx, admin.ID, claims.TokenID))
	assert.False(t, mr.Exists(key))
	assert.Equal(t, []string{entity.AuditActionAdminLogin, entity.AuditActionAdminLogout}, audit.actions())
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	_, _, _, uc, admin := newAuthFixture(t)

	_, err := uc.Login(context.Background(), &dto.LoginRequest{Email: admin.Email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@clinic.test", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_GetCurrentAdmin(t *testing.T) {
	_, _, _, uc, admin := newAuthFixture(t)

	res, err := uc.GetCurrentAdmin(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, res.Email)

	_, err = uc.GetCurrentAdmin(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
