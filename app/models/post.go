package models

import "strings"

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return errEmptyContent
	}
	return validate.Struct(p)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p *Post) Clone() *Post {
	c := *p
	if p.ImageURL != nil {
		u := *p.ImageURL
		c.ImageURL = &u
	}
	return &c
}
