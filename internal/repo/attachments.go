package repo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"emmark/internal/domain"
)

// ErrFileRead marks a failed attachment read. The submission that needed
// the file is aborted; no entity is created.
var ErrFileRead = errors.New("attachment read failed")

const fallbackMIME = "application/octet-stream"

// EncodeDataURL embeds a file's bytes in a self-describing string:
// data:<mime>;base64,<payload>.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = fallbackMIME
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL reverses EncodeDataURL, reproducing the original bytes
// and MIME type exactly.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL missing payload")
	}
	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return "", nil, fmt.Errorf("data URL missing base64 marker")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	return mimeType, data, nil
}

// EncodeFileInline reads a file fully and returns it as an inline
// attachment. The MIME type is inferred from the extension. Size limits
// are the caller's responsibility, checked before this is invoked.
func EncodeFileInline(path string) (domain.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %s: %v", ErrFileRead, path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = fallbackMIME
	}
	return domain.Attachment{
		Name: filepath.Base(path),
		Type: mimeType,
		Data: EncodeDataURL(mimeType, data),
	}, nil
}
