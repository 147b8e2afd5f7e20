// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package models

// User roles.
const (
	RoleAdmin   = "admin"
	RoleTheater = "theater"
)

// User is a backend account. Theater accounts are scoped to one theater;
// admin accounts may address any theater's resources.
type User struct {
	Username     string `json:"username" validate:"required,min=3,max=64"`
	PasswordHash string `json:"-"`
	Role         string `json:"role" validate:"required,oneof=admin theater"`
	TheaterID    string `json:"theaterId,omitempty"`
}

// PublicUser is the login-response view of a user, with the theater scope
// the agent needs to subscribe.
type PublicUser struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TheaterID string `json:"theaterId,omitempty"`
}

// Public strips credential material for API responses.
func (u *User) Public() PublicUser {
	return PublicUser{Username: u.Username, Role: u.Role, TheaterID: u.TheaterID}
}
