package password

import (
	"fmt"

	"github.com/shop-accounts-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured
// explicitly at the call site building the Vault.
const DefaultCost = 10

// Vault hashes and verifies password credentials. The cost factor is
// fixed at construction so every hash in a deployment uses the same
// work factor.
type Vault struct {
	cost int
}

func NewVault(cost int) *Vault {
	return &Vault{cost: cost}
}

// Hash returns the salted bcrypt hash of plaintext. An unset cost factor
// is a deployment mistake, not a user error.
func (v *Vault) Hash(plaintext string) (string, error) {
	if v.cost <= 0 {
		return "", fmt.Errorf("bcrypt cost not configured: %w", domain.ErrConfiguration)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Mismatch is a normal
// outcome, never an error.
func (v *Vault) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
