// Package hash provides the one-way credential hashing collaborator.
package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes and compares passwords with bcrypt.
type Bcrypt struct {
	cost int
}

func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt digest of plaintext. There is no recovery
// path.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches the digest.
func (b *Bcrypt) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
