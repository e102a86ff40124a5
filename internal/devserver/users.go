package devserver

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/cryptox"
	"github.com/dmitrijs2005/accountlink/internal/devserver/config"
)

var errDuplicatePhone = errors.New("phone already registered")

// User is an account known to the dev server. Only a salted argon2id
// verifier of the password is kept.
type User struct {
	AccountID string
	Phone     string
	Name      string
	Role      string

	salt     []byte
	verifier []byte
}

// UserStore is an in-memory user table.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byPhone map[string]*User
}

func NewUserStore() *UserStore {
	return &UserStore{byID: map[string]*User{}, byPhone: map[string]*User{}}
}

// NewUserStoreFromSeed loads seed users, failing on duplicates.
func NewUserStoreFromSeed(seed []config.SeedUser) (*UserStore, error) {
	s := NewUserStore()
	for _, u := range seed {
		if err := s.Add(u.AccountID, u.Phone, u.Password, u.Name, u.Role); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *UserStore) Add(accountID, phone, password, name, role string) error {
	if accountID == "" || phone == "" {
		return fmt.Errorf("user needs account id and phone")
	}

	salt := common.GenerateRandByteArray(16)
	u := &User{
		AccountID: accountID,
		Phone:     phone,
		Name:      name,
		Role:      role,
		salt:      salt,
		verifier:  cryptox.DeriveKey([]byte(password), salt),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[accountID]; ok {
		return fmt.Errorf("account %s: %w", accountID, common.ErrAlreadyLinked)
	}
	if _, ok := s.byPhone[phone]; ok {
		return fmt.Errorf("%s: %w", phone, errDuplicatePhone)
	}
	s.byID[accountID] = u
	s.byPhone[phone] = u
	return nil
}

// Authenticate returns the user for phone when password matches. Unknown
// phones and wrong passwords both yield common.ErrInvalidCredentials.
func (s *UserStore) Authenticate(phone, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.byPhone[phone]
	s.mu.RUnlock()
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	candidate := cryptox.DeriveKey([]byte(password), u.salt)
	if subtle.ConstantTimeCompare(u.verifier, candidate) != 1 {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserStore) Get(accountID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[accountID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}
