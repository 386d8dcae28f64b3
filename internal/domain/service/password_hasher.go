// Package service declares the ports the use cases drive: hashing, tokens,
// geocoding, images, push and mail.
package service

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	// NeedsRehash reports whether hash was produced with parameters other
	// than the current ones, so it should be replaced on the next login.
	NeedsRehash(hash string) bool
}
