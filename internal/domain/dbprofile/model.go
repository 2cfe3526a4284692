package dbprofile

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrDuplicateDatabase = errors.New("database name already exists")
	ErrMissingDatabase   = errors.New("database name required")
)

// Profile is a per-user MySQL connection profile. The JSON tags match the
// on-disk dbconfig.json format. Port is kept loosely typed because older
// files store it as either a number or a string.
type Profile struct {
	Host     string `json:"host"`
	Port     any    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// MissingFields returns the names of required connection fields that are
// empty, in a fixed order.
func (p *Profile) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"host", p.Host == ""},
		{"database", p.Database == ""},
		{"port", p.PortString() == ""},
		{"user", p.User == ""},
		{"password", p.Password == ""},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// PortString renders the port regardless of how it was stored.
func (p *Profile) PortString() string {
	switch v := p.Port.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int(v))
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// DSN builds a go-sql-driver/mysql data source name for the profile.
// PRE: required fields are present (see MissingFields)
func (p *Profile) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", p.User, p.Password, p.Host, p.PortString(), p.Database)
}

// deriveKey pads or truncates the shared secret to a 32-byte XOR key,
// mirroring the scheme used by the deployments these files are shared with.
func deriveKey(secret string) []byte {
	key := make([]byte, 32)
	copy(key, secret)
	return key
}

// Obfuscate reversibly masks a stored password: XOR with the derived key,
// then base64. This is obfuscation for at-rest files, not encryption; the
// format is fixed by the existing dbconfig.json files.
func Obfuscate(plaintext, secret string) string {
	if plaintext == "" {
		return ""
	}
	key := deriveKey(secret)
	raw := []byte(plaintext)
	out := make([]byte, len(raw))
	for i := range raw {
		out[i] = raw[i] ^ key[i%len(key)]
	}
	return base64.StdEncoding.EncodeToString(out)
}

// Reveal reverses Obfuscate. Values that do not decode as base64 are
// returned as-is: older files stored passwords in the clear.
func Reveal(stored, secret string) string {
	if stored == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored
	}
	key := deriveKey(secret)
	out := make([]byte, len(raw))
	for i := range raw {
		out[i] = raw[i] ^ key[i%len(key)]
	}
	if !isPrintable(out) {
		return stored
	}
	return string(out)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x09 || (c > 0x0d && c < 0x20) || c > 0x7e {
			return false
		}
	}
	return len(b) > 0
}

// FindByDatabase returns the index of the profile with the given database
// name, or -1.
func FindByDatabase(profiles []Profile, database string) int {
	for i, p := range profiles {
		if p.Database == database {
			return i
		}
	}
	return -1
}
