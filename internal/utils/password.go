package utils

import (
	"crypto/rand"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when asked to hash an empty password.
var ErrEmptyPassword = errors.New("password is empty")

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Decoy is compared against when a login names an unknown user so the
// response takes as long as a real mismatch.  It hashes random bytes nobody
// knows at the same cost as stored passwords, and is built on first use.
type Decoy struct {
	cost int
	once sync.Once
	hash []byte
}

func NewDecoy(cost int) *Decoy { return &Decoy{cost: cost} }

// Check performs a comparison that always fails.
func (d *Decoy) Check(plain string) {
	d.once.Do(func() {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)
		d.hash, _ = bcrypt.GenerateFromPassword(secret, d.cost)
	})
	_ = bcrypt.CompareHashAndPassword(d.hash, []byte(plain))
}

// Cost reports the bcrypt cost of the decoy hash, or 0 before first use.
func (d *Decoy) Cost() int {
	c, err := bcrypt.Cost(d.hash)
	if err != nil {
		return 0
	}
	return c
}
