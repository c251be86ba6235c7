// Package checksum computes document content hashes used to decide
// whether a page body needs to be re-uploaded.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// MaxSize caps the file size that will be hashed. Word documents are
// small; anything beyond this indicates something unexpected.
const MaxSize = 100 * 1024 * 1024

const bufferSize = 32 * 1024

// Reader computes the SHA-256 hex digest of a reader's content.
// Returns an error if the content exceeds MaxSize.
func Reader(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()
	limited := io.LimitReader(r, MaxSize+1)

	buf := make([]byte, bufferSize)
	total := int64(0)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := limited.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > MaxSize {
				return "", fmt.Errorf("content exceeds maximum size (%d bytes)", MaxSize)
			}
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("hash write error: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File computes the SHA-256 hex digest of a file's content
func File(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Reader(ctx, f)
}
