package vault

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/common"
)

// unlockClaims carries the ID of the collection a token unlocks.
type unlockClaims struct {
	jwt.RegisteredClaims
	CollectionID string
}

// UnlockManager issues and verifies unlock tokens for password-protected
// collections. The signing secret is random per process, so unlocks never
// outlive a restart.
type UnlockManager struct {
	secret []byte
	ttl    time.Duration
}

// NewUnlockManager creates a manager with a fresh random signing secret.
func NewUnlockManager(ttl time.Duration) (*UnlockManager, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return &UnlockManager{secret: secret, ttl: ttl}, nil
}

// Issue returns a signed unlock token for the given collection.
func (m *UnlockManager) Issue(collectionID uuid.UUID) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, unlockClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
		CollectionID: collectionID.String(),
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign unlock token: %w", err)
	}
	return tokenString, nil
}

// Verify checks that tokenString is a valid, unexpired unlock token for
// the given collection. Returns common.ErrInvalidToken otherwise.
func (m *UnlockManager) Verify(tokenString string, collectionID uuid.UUID) error {
	claims := &unlockClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.CollectionID != collectionID.String() {
		return common.ErrInvalidToken
	}
	return nil
}
