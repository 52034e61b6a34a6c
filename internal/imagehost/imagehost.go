// Package imagehost stores uploaded images on the local filesystem, keyed
// by content hash. Each stored image gets a JPEG master plus a WebP
// alternative and a small thumbnail; callers keep only the returned ref.
package imagehost

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chronicle/internal/config"
	"chronicle/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "/tmp/chronicle/uploads/images"
	DefaultMaxUploadSizeMB = 10
	MasterMaxSize          = 2048
	ThumbnailSize          = 256
	JPEGQuality            = 82
	WebPQuality            = 70
)

// Variant names accepted by ServePath.
const (
	VariantMaster    = "master"
	VariantWebP      = "webp"
	VariantThumbnail = "thumb"
)

// StoreInput carries an upload into Store.
type StoreInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Host validates, normalizes and stores images under a local directory.
type Host struct {
	uploadDir          string
	maxUploadSizeBytes int64
	baseURL            string
}

// NewHost builds an image host from application configuration.
func NewHost(cfg *config.Config) *Host {
	uploadDir := DefaultUploadDir
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	baseURL := ""

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		baseURL = strings.TrimSuffix(cfg.PublicBaseURL, "/")
	}

	return &Host{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		baseURL:            baseURL,
	}
}

// Store validates and persists an uploaded image, returning its ref.
// Storing the same content twice returns the same ref without rewriting.
func (h *Host) Store(in StoreInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > h.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", h.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return "", models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	masterJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	ref := contentHash(masterJPG)
	refDir := filepath.Join(h.uploadDir, ref)
	if _, statErr := os.Stat(refDir); statErr == nil {
		return ref, nil
	}

	masterWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	thumbJPG, err := encodeJPEG(resizeToFit(master, ThumbnailSize, ThumbnailSize), JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	files := map[string][]byte{
		"master.jpg":  masterJPG,
		"master.webp": masterWebP,
		"thumb.jpg":   thumbJPG,
	}
	written := make([]string, 0, len(files))
	for name, data := range files {
		path := filepath.Join(refDir, name)
		if err := writeBytesToFile(path, data); err != nil {
			cleanupFiles(written)
			return "", models.NewInternalError(err)
		}
		written = append(written, path)
	}

	return ref, nil
}

// Delete removes all stored files for a ref. A missing ref is not an error.
func (h *Host) Delete(ref string) error {
	if !isValidRef(ref) {
		return models.NewValidationError("Invalid image ref")
	}
	if err := os.RemoveAll(filepath.Join(h.uploadDir, ref)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResolveURL maps a stored ref to its public master URL. Empty refs
// resolve to the empty string so callers can pass through unset fields.
func (h *Host) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/images/%s", h.baseURL, ref)
}

// ServePath resolves a ref and variant to an on-disk path for serving.
func (h *Host) ServePath(ref, variant string) (string, error) {
	if !isValidRef(ref) {
		return "", models.NewValidationError("Invalid image ref")
	}

	var filename string
	switch variant {
	case VariantThumbnail:
		filename = "thumb.jpg"
	case VariantWebP:
		filename = "master.webp"
	case VariantMaster, "":
		filename = "master.jpg"
	default:
		return "", models.NewValidationError("Unknown image variant")
	}

	fullPath := filepath.Join(h.uploadDir, ref, filename)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Image", ref)
		}
		return "", models.NewInternalError(err)
	}
	return fullPath, nil
}

// isValidRef checks that the ref is strictly lowercase hex (SHA-256 style).
// This prevents path traversal attacks via crafted ref parameters.
func isValidRef(ref string) bool {
	if len(ref) == 0 || len(ref) > 128 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
