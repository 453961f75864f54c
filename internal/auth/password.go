package auth

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

type PasswordManager struct {
	minLength     int
	requireNumber bool
	cost          int
}

func NewPasswordManager() *PasswordManager {
	return &PasswordManager{minLength: 8, requireNumber: true, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing at the given bcrypt cost.
func (pm *PasswordManager) WithCost(cost int) *PasswordManager {
	out := *pm
	out.cost = cost
	return &out
}

func (pm *PasswordManager) HashPassword(password string) (string, error) {
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (pm *PasswordManager) ComparePassword(hashed, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return fmt.Errorf("%w: at least %d characters", ErrWeakPassword, pm.minLength)
	}
	if pm.requireNumber {
		for _, r := range password {
			if unicode.IsDigit(r) {
				return nil
			}
		}
		return fmt.Errorf("%w: at least one number", ErrWeakPassword)
	}
	return nil
}
