package services

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MediaURLPrefix is the route uploaded and generated files are served under.
const MediaURLPrefix = "/media"

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

var unsafeName = regexp.MustCompile(`\W+`)

// ErrUnsupportedMedia is returned for uploads that are not images.
var ErrUnsupportedMedia = errors.New("unsupported image type")

// MediaStorage maps stored files between the media directory and their public URLs.
type MediaStorage struct {
	root string
}

// NewMediaStorage creates the storage rooted at root.
func NewMediaStorage(root string) *MediaStorage {
	return &MediaStorage{root: root}
}

// Root returns the directory files are written to.
func (m *MediaStorage) Root() string {
	return m.root
}

// NewUploadPath reserves a fresh file name for an upload named filename in
// dir. It returns the absolute path to save to and the public URL path.
func (m *MediaStorage) NewUploadPath(dir, filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExt[ext] {
		return "", "", ErrUnsupportedMedia
	}
	return m.prepare(dir, uuid.NewString()+ext)
}

// Remove deletes the file behind a public URL path. Unknown paths are ignored.
func (m *MediaStorage) Remove(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, MediaURLPrefix+"/")
	if !ok || rel == "" {
		return nil
	}
	full := filepath.Join(m.root, filepath.FromSlash(path.Clean("/" + rel)))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (m *MediaStorage) prepare(dir, name string) (string, string, error) {
	full := filepath.Join(m.root, dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", fmt.Errorf("create media dir: %w", err)
	}
	return full, path.Join(MediaURLPrefix, dir, name), nil
}

// SafeFilename replaces every run of non-word characters with an underscore.
func SafeFilename(value string) string {
	return unsafeName.ReplaceAllString(value, "_")
}
