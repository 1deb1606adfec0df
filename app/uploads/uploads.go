package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"socialfeed/app/repositories"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where saved files are served from.
const URLPrefix = "/uploads/"

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrInvalidFileType = fmt.Errorf("%w: only JPEG, PNG and GIF images are allowed", repositories.ErrValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", repositories.ErrValidation)
)

var allowed = []string{"image/jpeg", "image/png", "image/gif"}

// Saver validates image uploads and writes them under Dir.
type Saver struct {
	Dir      string
	MaxBytes int64
}

func NewSaver(dir string, maxBytes int64) *Saver {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Saver{Dir: dir, MaxBytes: maxBytes}
}

// Save checks the content type from the bytes themselves, stores the file
// under a random name and returns its public URL.
func (s *Saver) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", fmt.Errorf("%w (limit %s)", ErrFileTooLarge, humanize.IBytes(uint64(s.MaxBytes)))
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowed...) {
		return "", fmt.Errorf("%w: got %s", ErrInvalidFileType, mtype.String())
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	name := uuid.NewString() + mtype.Extension()
	if err := writeFile(filepath.Join(s.Dir, name), data); err != nil {
		return "", err
	}
	return URLPrefix + name, nil
}

// Handler serves saved files below URLPrefix.
func (s *Saver) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(noListing{http.Dir(s.Dir)}))
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write upload: %w", err)
	}
	return f.Close()
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s *Saver) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, URLPrefix))
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
