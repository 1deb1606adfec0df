package models

import "errors"

var errEmptyContent = errors.New("content cannot be empty")

// Validate checks the user record before it is persisted.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	c := *u
	return &c
}
