package users

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxPhotoSize    = 5 << 20
	ProfilesURLBase = "/uploads/profiles"
)

var (
	ErrUnsupportedImage = errors.New("only jpeg and png images are accepted")
	ErrImageTooLarge    = errors.New("image exceeds 5 MB")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// PhotoStore keeps profile pictures on local disk under <root>/profiles.
// Files are served by the static /uploads route.
type PhotoStore struct {
	dir string
}

func NewPhotoStore(uploadRoot string) *PhotoStore {
	return &PhotoStore{dir: filepath.Join(uploadRoot, "profiles")}
}

// Save writes the image under a fresh uuid name and returns its public URL.
// The content type is sniffed from the bytes, not taken from the client.
func (s *PhotoStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxPhotoSize {
		return "", ErrImageTooLarge
	}

	ext, ok := photoExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedImage
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create profiles dir: %w", err)
	}

	name := uuid.NewString() + ext
	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write photo file: %w", err)
	}
	return path.Join(ProfilesURLBase, name), nil
}

// Remove deletes a previously saved photo. URLs outside the profiles
// directory and missing files are ignored.
func (s *PhotoStore) Remove(url string) error {
	if !strings.HasPrefix(url, ProfilesURLBase+"/") {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
