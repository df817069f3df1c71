// Package imagesrc loads table photographs from disk.
package imagesrc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnreadable marks an image that cannot be read or decoded. It is a hard
// failure for that image; no model call is made.
var ErrUnreadable = errors.New("image unreadable")

// DefaultMIME is used for extensions outside the known set.
const DefaultMIME = "image/jpeg"

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// Image is one photographed table.
type Image struct {
	Name string // base file name
	Path string // empty for in-memory images
	Data []byte
	MIME string
	// Width and Height come from the decoded header.
	Width  int
	Height int
}

// MIMEType returns the media type for path by extension.
func MIMEType(path string) string {
	if m, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return DefaultMIME
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads path and checks that the bytes decode as an image.
func Load(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	img, err := FromBytes(filepath.Base(path), data)
	if err != nil {
		return Image{}, err
	}
	img.Path = path
	return img, nil
}

// FromBytes wraps data already in memory. The MIME type comes from the name's
// extension and the data must decode as jpeg, png, bmp, or webp.
func FromBytes(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: %s: empty file", ErrUnreadable, name)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}

	mime := "image/" + format
	if IsImage(name) {
		mime = MIMEType(name)
	}

	return Image{
		Name:   filepath.Base(name),
		Data:   data,
		MIME:   mime,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Scan returns the sorted paths of supported images under dir.
func Scan(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if IsImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}
