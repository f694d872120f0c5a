package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

type EntityType string

const (
	EntityUser     EntityType = "users"
	EntityProduct  EntityType = "products"
	EntityCarousel EntityType = "carousel"
)

// MaxUploadSize bounds a single image payload.
const MaxUploadSize int64 = 10 << 20 // 10 MiB

var (
	AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	AllowedMIMEs      = []string{"image/jpeg", "image/png", "image/webp"}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
)

func IsExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func IsMIMEAllowed(mimeType string) bool {
	for _, a := range AllowedMIMEs {
		if mimeType == a {
			return true
		}
	}
	return false
}

// ResolvePath returns the on-disk directory for an entity's uploads.
func ResolvePath(entity EntityType) string {
	return filepath.Join("uploads", string(entity))
}

// PublicURL builds the externally resolvable URL for a stored file.
func PublicURL(entity EntityType, filename string) string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return fmt.Sprintf("%s/uploads/%s/%s", base, entity, filename)
}

// SaveImage validates and stores one uploaded image, returning the
// stored filename. Validation covers extension, sniffed MIME type and
// payload size; the stored name is a fresh UUID.
func SaveImage(file multipart.File, header *multipart.FileHeader, entity EntityType) (string, error) {
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !IsExtensionAllowed(ext) {
		return "", fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	buf, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if int64(len(buf)) > MaxUploadSize {
		return "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(buf)
	if !IsMIMEAllowed(mimeType) {
		return "", fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType)
	}

	name := uuid.New().String()

	// Re-encode through image.Decode when possible; strips EXIF.
	var decoded image.Image
	if img, _, derr := image.Decode(bytes.NewReader(buf)); derr == nil {
		decoded = img
		if ext != ".webp" {
			var out bytes.Buffer
			if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err == nil {
				buf = out.Bytes()
				ext = ".jpg"
			}
		}
	}

	destDir := ResolvePath(entity)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", destDir, err)
	}

	filename := name + ext
	fullPath := filepath.Join(destDir, filename)
	if err := os.WriteFile(fullPath, buf, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", fullPath, err)
	}

	if decoded != nil {
		_ = writeThumbnail(decoded, entity, name)
	}

	return filename, nil
}

func writeThumbnail(img image.Image, entity EntityType, name string) error {
	thumbDir := filepath.Join(ResolvePath(entity), "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return err
	}
	thumb := imaging.Thumbnail(img, 160, 160, imaging.Lanczos)
	return imaging.Save(thumb, filepath.Join(thumbDir, name+".jpg"))
}

// StoredName extracts the stored filename from a public URL.
func StoredName(url string) string {
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		return ""
	}
	return url[i+1:]
}

// DeleteStored removes a previously stored file; missing files are not
// an error.
func DeleteStored(entity EntityType, filename string) error {
	base := filepath.Base(filename)
	path := filepath.Join(ResolvePath(entity), base)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	_ = os.Remove(filepath.Join(ResolvePath(entity), "thumb", name+".jpg"))
	return nil
}
