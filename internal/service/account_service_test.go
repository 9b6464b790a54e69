package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"testing"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/auth"
	"studiocrm/internal/database"
	"studiocrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func setupAccountService(t *testing.T) (*AccountService, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// MinCost, чтобы тесты не тратили время на полный bcrypt
	svc := NewAccountService(db, auth.NewHasher(bcrypt.MinCost), models.DefaultMinPasswordLength, &logger)
	return svc, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Мария  ", " 79991234567 ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Мария", user.Name)
	assert.Equal(t, "79991234567", user.Phone)
	assert.Equal(t, models.RoleWorker, user.Role)

	logged, err := svc.Login(ctx, "79991234567", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, models.RoleWorker, logged.Role)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		phone    string
		password string
	}{
		{"empty name", "", "79991234567", "secret123"},
		{"whitespace name", "   ", "79991234567", "secret123"},
		{"empty phone", "Мария", "  ", "secret123"},
		{"short password", "Мария", "79991234567", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.phone, tt.password)
			require.Error(t, err)
			assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
		})
	}
}

func TestRegister_DuplicatePhone(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Мария", "79991234567", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Другая", "79991234567", "secret456")
	require.Error(t, err)
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))

	staff, err := svc.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, staff, 1)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Мария", "79991234567", "secret123")
	require.NoError(t, err)

	// Неизвестный телефон и неверный пароль неразличимы по сообщению
	_, errUnknown := svc.Login(ctx, "70000000000", "secret123")
	require.Error(t, errUnknown)
	assert.Equal(t, apperrors.Auth, apperrors.KindOf(errUnknown))

	_, errWrong := svc.Login(ctx, "79991234567", "wrong")
	require.Error(t, errWrong)
	assert.Equal(t, apperrors.Auth, apperrors.KindOf(errWrong))

	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_EmptyFields(t *testing.T) {
	svc, _ := setupAccountService(t)

	_, err := svc.Login(context.Background(), "", "secret123")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))

	_, err = svc.Login(context.Background(), "79991234567", "")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
}

func TestLogin_MigratesLegacyHash(t *testing.T) {
	svc, db := setupAccountService(t)
	ctx := context.Background()

	// Учетка с легаси-дайджестом: 64 hex-символа SHA-256 без соли
	sum := sha256.Sum256([]byte("secret123"))
	legacy := hex.EncodeToString(sum[:])
	user, err := db.CreateUser(ctx, "Мария", "79991234567", legacy)
	require.NoError(t, err)

	logged, err := svc.Login(ctx, "79991234567", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	// Хеш перекодирован в современную схему и проверяется ею
	_, stored, err := db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.False(t, auth.IsLegacyHash(stored))
	assert.Equal(t, auth.KindModern, auth.ParseCredential(stored).Kind)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("secret123")))

	// Повторный вход уже по bcrypt
	_, err = svc.Login(ctx, "79991234567", "secret123")
	require.NoError(t, err)
}

func TestLogin_LegacyHashWrongPassword(t *testing.T) {
	svc, db := setupAccountService(t)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("secret123"))
	legacy := hex.EncodeToString(sum[:])
	_, err := db.CreateUser(ctx, "Мария", "79991234567", legacy)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "79991234567", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperrors.Auth, apperrors.KindOf(err))

	// Неудачный вход не трогает сохраненный хеш
	_, stored, err := db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, legacy, stored)
}

func TestLogin_UnknownEncoding(t *testing.T) {
	svc, db := setupAccountService(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "Мария", "79991234567", "plaintext-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "79991234567", "plaintext-password")
	require.Error(t, err)
	assert.Equal(t, apperrors.Auth, apperrors.KindOf(err))
}

func TestPromoteToAdmin(t *testing.T) {
	svc, _ := setupAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Мария", "79991234567", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.PromoteToAdmin(ctx, "79991234567"))

	logged, err := svc.Login(ctx, "79991234567", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, logged.Role)

	err = svc.PromoteToAdmin(ctx, "70000000000")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}
