package artifact

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Validation failure sentinels; callers branch with errors.Is.
var (
	ErrInvalidEncoding = errors.New("invalid base64 encoding")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds maximum size")
	ErrTypeMismatch    = errors.New("image content does not match declared type")
)

// ValidatedArtifact is a decoded and authenticated binary payload. It is
// produced once per upload and consumed immediately; nothing here persists it.
type ValidatedArtifact struct {
	Bytes        []byte
	SniffedType  string
	DeclaredType string
	ContentType  string
	SizeBytes    int64
}

// base64 expands binary by ~4/3, so the encoded form of a payload at the size
// cap is at most maxSize*1.4. Anything larger can be rejected before decoding.
const base64ExpansionFactor = 1.4

// canonicalType maps accepted declared types to their sniffed extension
var canonicalType = map[string]string{
	"png":  "png",
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"webp": "webp",
	"gif":  "gif",
}

// DecodeImagePayload decodes an uploaded image payload, either a
// data:image/<type>;base64,<data> URI or raw base64 with a declared type
// hint, and authenticates the content against the declared type's magic
// bytes. The declared MIME type is never trusted on its own.
func DecodeImagePayload(payload, declaredHint string, maxSize int64) (*ValidatedArtifact, error) {
	declared, encoded := splitDataURI(payload, declaredHint)

	// Cheap pre-check before paying for the decode
	if int64(len(encoded)) > int64(float64(maxSize)*base64ExpansionFactor) {
		return nil, fmt.Errorf("%w: encoded payload is %d bytes", ErrTooLarge, len(encoded))
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	canonical, ok := canonicalType[declared]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	if int64(len(decoded)) > maxSize {
		return nil, fmt.Errorf("%w: decoded payload is %d bytes, limit %d", ErrTooLarge, len(decoded), maxSize)
	}

	if !matchesMagicBytes(decoded, canonical) {
		return nil, fmt.Errorf("%w: declared %s", ErrTypeMismatch, declared)
	}

	return &ValidatedArtifact{
		Bytes:        decoded,
		SniffedType:  canonical,
		DeclaredType: declared,
		ContentType:  "image/" + canonical,
		SizeBytes:    int64(len(decoded)),
	}, nil
}

// splitDataURI separates a data URI into its declared type and base64 body;
// raw base64 falls back to the declared hint.
func splitDataURI(payload, declaredHint string) (declared, encoded string) {
	if !strings.HasPrefix(payload, "data:") {
		return declaredHint, payload
	}

	rest := strings.TrimPrefix(payload, "data:")
	meta, body, found := strings.Cut(rest, ",")
	if !found {
		return declaredHint, payload
	}

	meta = strings.TrimSuffix(meta, ";base64")
	if sub, ok := strings.CutPrefix(meta, "image/"); ok {
		return sub, body
	}
	return meta, body
}

// matchesMagicBytes verifies the leading bytes of data against the signature
// of the declared type. This defeats content-type spoofing regardless of what
// extension or MIME the client claims.
func matchesMagicBytes(data []byte, canonical string) bool {
	switch canonical {
	case "png":
		return bytes.HasPrefix(data, []byte("\x89PNG"))
	case "jpeg":
		return bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	case "gif":
		return bytes.HasPrefix(data, []byte("GIF8"))
	case "webp":
		// RIFF container: bytes 0-3 "RIFF", bytes 8-11 "WEBP"
		return len(data) >= 12 &&
			bytes.Equal(data[0:4], []byte("RIFF")) &&
			bytes.Equal(data[8:12], []byte("WEBP"))
	default:
		return false
	}
}
