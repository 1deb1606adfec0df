package models

import "strings"

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return errEmptyContent
	}
	return validate.Struct(c)
}

// Clone returns a copy of the comment.
func (c *Comment) Clone() *Comment {
	cp := *c
	return &cp
}
