package user

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role constants
const (
	RoleUser  = "USER"
	RoleSuper = "SUPER"
)

// Account status constants
const (
	StatusActive   = 0
	StatusDisabled = 1
)

// Domain errors
var (
	ErrEmptyUsername   = errors.New("username and password required")
	ErrEmptyPassword   = errors.New("password required")
	ErrWrongPassword   = errors.New("invalid credentials")
	ErrAccountDisabled = errors.New("account disabled")
	ErrNotFound        = errors.New("user not found")
	ErrAlreadyExists   = errors.New("user already exists")
	ErrInvalidStatus   = errors.New("status must be 0 or 1")
)

// User is an entry in the shared user directory. The JSON tags match the
// on-disk user.config.json format shared with existing deployments: MD5 is
// the legacy md5(password+secret) digest, Hash is a bcrypt hash added for
// accounts whose password was set by this service.
type User struct {
	Username string `json:"username"`
	MD5      string `json:"md5"`
	Hash     string `json:"hash,omitempty"`
	Status   int    `json:"status"`
	Role     string `json:"role"`
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if u.Status != StatusActive && u.Status != StatusDisabled {
		return ErrInvalidStatus
	}
	return nil
}

// Disabled reports whether the account is blocked from logging in.
// INVARIANT: User fields are not mutated
func (u *User) Disabled() bool {
	return u.Status == StatusDisabled
}

// SetPassword stores a password in both schemes: the legacy salted-md5 digest
// (so files written by this service still verify on older deployments) and a
// bcrypt hash used preferentially by CheckPassword.
// PRE: plaintext is non-empty
// POST: MD5 and Hash are both set
func (u *User) SetPassword(plaintext, secret string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.MD5 = LegacyDigest(plaintext, secret)
	u.Hash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password. Accounts carrying a bcrypt
// hash verify against it; accounts written by the previous service only have
// the legacy digest and fall back to it.
// PRE: MD5 or Hash is set
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext, secret string) error {
	if u.Hash != "" {
		if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(plaintext)) != nil {
			return ErrWrongPassword
		}
		return nil
	}
	if u.MD5 == "" || LegacyDigest(plaintext, secret) != u.MD5 {
		return ErrWrongPassword
	}
	return nil
}

// LegacyDigest computes the historical md5(password+secret) hex digest.
// Kept only for compatibility with existing user.config.json files; new
// passwords also get a bcrypt hash.
func LegacyDigest(plaintext, secret string) string {
	sum := md5.Sum([]byte(plaintext + secret))
	return hex.EncodeToString(sum[:])
}

// NormalizeRole clamps unknown roles to USER, matching the behavior of the
// directory this store is shared with.
func NormalizeRole(role string) string {
	if role == RoleSuper {
		return RoleSuper
	}
	return RoleUser
}
