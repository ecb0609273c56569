package util

import (
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// passwordHashCost is pinned rather than left at bcrypt.DefaultCost so a
// library upgrade cannot silently change how new hashes are produced.
const passwordHashCost = 12

// HashPassword hashes a plain text password with bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword reports whether the plain text password matches the stored
// bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordNeedsRehash reports whether a stored hash was produced at a cost
// below the current passwordHashCost. Such hashes are upgraded on the next
// successful login, the only moment the plain text is available.
func PasswordNeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < passwordHashCost
}
