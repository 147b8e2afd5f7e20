// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/yqpay/theaterpos/internal/models"
)

var (
	// ErrUserNotFound is returned when the username is unknown.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed password check. It
	// deliberately does not distinguish a wrong password from a missing
	// user at the API layer.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore persists backend accounts.
type UserStore struct {
	db *badger.DB
}

// NewUserStore creates a user store on db.
func NewUserStore(db *badger.DB) *UserStore {
	return &UserStore{db: db}
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// storedUser is the persisted shape; models.User hides the hash from
// JSON so it needs an explicit field here.
type storedUser struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	TheaterID    string `json:"theaterId,omitempty"`
}

// Put stores a user, hashing password when it is non-empty. An existing
// user under the same name is overwritten.
func (s *UserStore) Put(ctx context.Context, user *models.User, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	body, err := json.Marshal(storedUser{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		TheaterID:    user.TheaterID,
	})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.Username), body)
	})
}

// Get loads a user by username.
func (s *UserStore) Get(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stored storedUser
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username:     stored.Username,
		PasswordHash: stored.PasswordHash,
		Role:         stored.Role,
		TheaterID:    stored.TheaterID,
	}, nil
}

// Authenticate checks a username/password pair and returns the account
// on success.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
