package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{
			name: "valid post",
			post: &Post{
				UserID:    1,
				Content:   "hello world",
				CreatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "empty content",
			post: &Post{
				UserID:  1,
				Content: "",
			},
			wantErr: true,
		},
		{
			name: "whitespace content",
			post: &Post{
				UserID:  1,
				Content: "   \n\t",
			},
			wantErr: true,
		},
		{
			name: "negative id",
			post: &Post{
				ID:      -1,
				UserID:  1,
				Content: "hello",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostClone(t *testing.T) {
	url := "/uploads/a.png"
	post := &Post{ID: 1, UserID: 2, Content: "original", ImageURL: &url}

	clone := post.Clone()
	clone.Content = "changed"
	*clone.ImageURL = "/uploads/b.png"

	assert.Equal(t, "original", post.Content)
	assert.Equal(t, "/uploads/a.png", *post.ImageURL)
}
