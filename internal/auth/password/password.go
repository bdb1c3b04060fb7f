package password

import (
	"strings"
	"unicode"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"golang.org/x/crypto/bcrypt"
)

const specialChars = "!@#$%^&*"

// productionCost matches the cost the product runs with; everything else
// (tests, local dev) uses the minimum so suites stay fast.
const productionCost = 14

type Hasher struct {
	cost int
}

func NewHasher(production bool) *Hasher {
	cost := bcrypt.MinCost
	if production {
		cost = productionCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", customErrors.WrapInternal(err, "Hash")
	}
	return string(hashed), nil
}

func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateStrength applies the strength rules in fixed order; the first
// failing rule wins. The messages are a client-facing contract.
func ValidateStrength(password string) error {
	if len(password) < 8 {
		return customErrors.NewBusinessRule("A senha deve ter pelo menos 8 caracteres")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return customErrors.NewBusinessRule("A senha deve conter pelo menos uma letra maiúscula")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return customErrors.NewBusinessRule("A senha deve conter pelo menos uma letra minúscula")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return customErrors.NewBusinessRule("A senha deve conter pelo menos um número")
	}
	if !strings.ContainsAny(password, specialChars) {
		return customErrors.NewBusinessRule("A senha deve conter pelo menos um caractere especial")
	}
	return nil
}
