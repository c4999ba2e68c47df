// Package users is the read-only credential store loaded once at startup.
package users

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/agentgate/internal/util"
)

const (
	// DefaultUsername and DefaultPassword are used when nothing is configured.
	DefaultUsername = "admin"
	DefaultPassword = "change-me"
	// DefaultPage is the sentinel page granted when a user lists none.
	DefaultPage = "default"

	saltLen = 16
)

// ErrMalformedConfig is returned when the multi-user configuration is present
// but cannot be used.
var ErrMalformedConfig = errors.New("malformed user configuration")

// User is an account as exposed to callers. The password never leaves the
// store.
type User struct {
	Username     string
	AllowedPages []string
}

// Source holds the raw configuration values the store is built from.
type Source struct {
	// UsersJSON is the multi-user document; empty means not configured.
	UsersJSON string
	// Username, Password and Pages describe the single fallback user.
	Username string
	Password string
	// Pages is a comma-separated list.
	Pages string
}

// Store maps usernames to accounts. Safe for concurrent use; never mutated
// after Load returns.
type Store struct {
	users  map[string]*account
	params util.Argon2idParams
	dummy  *verifier
}

type account struct {
	user     User
	verifier *verifier
}

// verifier keeps the derived password key sealed in a memguard enclave.
type verifier struct {
	params util.Argon2idParams
	salt   []byte
	key    *memguard.Enclave
}

// Option configures a Store.
type Option func(*Store)

// WithArgon2idParams overrides the key derivation cost for plaintext
// passwords. Pre-hashed entries keep their own parameters.
func WithArgon2idParams(p util.Argon2idParams) Option {
	return func(s *Store) {
		s.params = p
	}
}

// Load builds the store. A malformed UsersJSON is an error rather than a
// silent fallback; only an absent or empty document falls back to the single
// configured user.
func Load(src Source, opts ...Option) (*Store, error) {
	s := &Store{
		users:  make(map[string]*account),
		params: util.DefaultArgon2idParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := util.ValidateArgon2idParams(s.params); err != nil {
		return nil, err
	}

	var entries []entry
	if strings.TrimSpace(src.UsersJSON) != "" {
		parsed, err := parseUsersJSON(src.UsersJSON)
		if err != nil {
			return nil, err
		}
		entries = parsed
	}
	if len(entries) == 0 {
		username := src.Username
		if username == "" {
			username = DefaultUsername
		}
		password := src.Password
		if password == "" {
			password = DefaultPassword
		}
		entries = []entry{{username: username, password: password, pages: ParsePages(src.Pages)}}
	}

	for _, e := range entries {
		v, err := s.newVerifier(e.password)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", e.username, err)
		}
		s.users[e.username] = &account{
			user:     User{Username: e.username, AllowedPages: e.pages},
			verifier: v,
		}
	}

	dummyPassword, err := util.RandomToken(saltLen)
	if err != nil {
		return nil, err
	}
	if s.dummy, err = s.newVerifier(dummyPassword); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns the account for username.
func (s *Store) Lookup(username string) (User, bool) {
	a, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return a.user.clone(), true
}

// Authenticate checks username and password. Unknown usernames are checked
// against a dummy verifier so both failure modes cost the same.
func (s *Store) Authenticate(username, password string) (User, bool) {
	a, ok := s.users[username]
	if !ok {
		s.dummy.verify(password)
		return User{}, false
	}
	if !a.verifier.verify(password) {
		return User{}, false
	}
	return a.user.clone(), true
}

// Len returns the number of configured users.
func (s *Store) Len() int { return len(s.users) }

func (s *Store) newVerifier(password string) (*verifier, error) {
	if util.IsArgon2idHash(password) {
		params, salt, key, err := util.ParseArgon2idHash(password)
		if err != nil {
			return nil, err
		}
		return &verifier{params: params, salt: salt, key: memguard.NewEnclave(key)}, nil
	}
	salt, err := util.RandomBytes(saltLen)
	if err != nil {
		return nil, err
	}
	key, err := util.DeriveArgon2idKey(util.Normalize(password), salt, s.params)
	if err != nil {
		return nil, err
	}
	return &verifier{params: s.params, salt: salt, key: memguard.NewEnclave(key)}, nil
}

func (v *verifier) verify(password string) bool {
	candidate, err := util.DeriveArgon2idKey(util.Normalize(password), v.salt, v.params)
	if err != nil {
		return false
	}
	buf, err := v.key.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	return buf.EqualTo(candidate)
}

func (u User) clone() User {
	u.AllowedPages = slices.Clone(u.AllowedPages)
	return u
}

// HashPassword derives an encoded argon2id verifier that may be used in place
// of a plaintext password in the configuration.
func HashPassword(password string) (string, error) {
	params := util.DefaultArgon2idParams()
	salt, err := util.RandomBytes(saltLen)
	if err != nil {
		return "", err
	}
	key, err := util.DeriveArgon2idKey(util.Normalize(password), salt, params)
	if err != nil {
		return "", err
	}
	return util.EncodeArgon2idHash(params, salt, key), nil
}
