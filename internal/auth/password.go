// Package auth содержит движок учетных данных: медленный адаптивный хеш
// для новых паролей и проверку устаревших SHA-256 дайджестов с прозрачной
// миграцией при входе.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialKind — схема кодирования сохраненного хеша пароля.
type CredentialKind int

const (
	// KindUnknown — хеш не распознан ни одной схемой, вход невозможен.
	KindUnknown CredentialKind = iota
	// KindModern — bcrypt, текущая схема.
	KindModern
	// KindLegacy — несоленый SHA-256 в hex, 64 символа фиксированной ширины.
	KindLegacy
)

// Credential — разобранное значение поля password_hash.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// ParseCredential определяет схему по форме строки. Форма — единственный
// дискриминант для уже сохраненных данных: bcrypt всегда начинается с "$2",
// легаси-дайджест — ровно 64 hex-символа.
func ParseCredential(stored string) Credential {
	switch {
	case len(stored) > 2 && stored[0] == '$' && stored[1] == '2':
		return Credential{Kind: KindModern, Value: stored}
	case IsLegacyHash(stored):
		return Credential{Kind: KindLegacy, Value: stored}
	}
	return Credential{Kind: KindUnknown, Value: stored}
}

// IsLegacyHash — ровно 64 шестнадцатеричных символа.
func IsLegacyHash(stored string) bool {
	if len(stored) != 64 {
		return false
	}
	for i := 0; i < len(stored); i++ {
		c := stored[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// VerifyLegacy пересчитывает SHA-256 от пароля и сравнивает с дайджестом.
func VerifyLegacy(password, legacyHash string) bool {
	sum := sha256.Sum256([]byte(password))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(legacyHash)) == 1
}

// Hasher хеширует и проверяет пароли по текущей схеме с фиксированной
// стоимостью работы.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
