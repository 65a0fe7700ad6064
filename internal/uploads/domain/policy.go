package uploadsdomain

import (
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kgellert/hodatay-groups/internal/uploads"
	"github.com/samber/lo"
)

const octetStream = "application/octet-stream"

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/heif": ".heif",
	"image/avif": ".avif",
	"image/tiff": ".tiff",
	"image/bmp":  ".bmp",
}

func ExtForContentType(ct string) (string, bool) {
	ext, ok := allowedContentTypes[ct]
	return ext, ok
}

func IsValidContentType(ct string) bool {
	_, exist := allowedContentTypes[ct]
	return exist
}

func AllowedContentTypes() []string {
	keys := lo.Keys(allowedContentTypes)
	slices.Sort(keys)
	return keys
}

// DetectContentType picks the declared type, or sniffs head when nothing
// useful was declared, and checks the result against the image allow-list.
func DetectContentType(declared string, head []byte) (string, error) {
	ct := normalize(declared)
	if ct == "" || ct == octetStream {
		ct = normalize(mimetype.Detect(head).String())
	}

	if !IsValidContentType(ct) {
		return "", uploads.ErrInvalidContentType
	}

	return ct, nil
}

func normalize(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// ContentTypeForKey maps a generated key back to the type it was stored with.
func ContentTypeForKey(key string) string {
	for ct, ext := range allowedContentTypes {
		if strings.HasSuffix(key, ext) {
			return ct
		}
	}
	return octetStream
}
