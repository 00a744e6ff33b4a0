package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrUploadTooLarge  = errors.New("uploaded file too large")
)

// allowedImageTypes Declared content type to stored extension. Anything
// else is rejected before any byte is written.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

const uploadChunkSize = 1 << 20

// SaveUpload Validate and store an uploaded image under
// baseDir/userID/YYYY/MM/DD with a random unique name. The upload is
// streamed in 1 MiB chunks against maxBytes; exceeding the budget deletes
// the partial file and fails with ErrUploadTooLarge. Returns both the
// filesystem path and the path relative to baseDir.
func SaveUpload(baseDir, userID string, fh *multipart.FileHeader, maxBytes int64) (string, string, error) {
	ext, ok := allowedImageTypes[fh.Header.Get("Content-Type")]
	if !ok {
		return "", "", ErrUnsupportedType
	}

	today := time.Now().Format("2006/01/02")
	relDir := filepath.Join(userID, today)
	folder := filepath.Join(baseDir, relDir)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", fmt.Errorf("cannot create upload folder: %w", err)
	}

	// Collisions are not checked: the name source is a V4 UUID.
	fname := uuid.NewV4().String() + ext
	relPath := filepath.Join(relDir, fname)
	path := filepath.Join(baseDir, relPath)

	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("cannot open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("cannot create file %s: %w", path, err)
	}

	written, err := copyWithLimit(dst, src, maxBytes)
	closeErr := dst.Close()
	if err != nil {
		os.Remove(path)
		return "", "", err
	}
	if closeErr != nil {
		os.Remove(path)
		return "", "", closeErr
	}

	log.Debug(fmt.Sprintf("Stored upload %s (%d bytes)", path, written))
	return path, relPath, nil
}

// copyWithLimit Stream src to dst in fixed-size chunks, failing with
// ErrUploadTooLarge once the cumulative size exceeds maxBytes
func copyWithLimit(dst io.Writer, src io.Reader, maxBytes int64) (int64, error) {
	buf := make([]byte, uploadChunkSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if maxBytes > 0 && written > maxBytes {
				return written, ErrUploadTooLarge
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write failed: %w", werr)
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("read failed: %w", err)
		}
	}
}
