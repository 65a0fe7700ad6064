package uploadsdomain

import (
	"strings"
	"testing"

	"github.com/kgellert/hodatay-groups/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		head     []byte
		want     string
		wantErr  error
	}{
		{name: "declared png", declared: "image/png", head: []byte("whatever"), want: "image/png"},
		{name: "declared with params", declared: "image/jpeg; charset=binary", want: "image/jpeg"},
		{name: "declared upper case", declared: "IMAGE/WEBP", want: "image/webp"},
		{name: "sniffed when missing", declared: "", head: pngHead, want: "image/png"},
		{name: "sniffed when octet-stream", declared: "application/octet-stream", head: pngHead, want: "image/png"},
		{name: "declared non-image", declared: "text/plain", head: pngHead, wantErr: uploads.ErrInvalidContentType},
		{name: "sniffed non-image", declared: "", head: []byte("hello world"), wantErr: uploads.ErrInvalidContentType},
		{name: "malformed header", declared: "image/", head: []byte("x"), wantErr: uploads.ErrInvalidContentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectContentType(tt.declared, tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedContentTypes(t *testing.T) {
	got := AllowedContentTypes()

	assert.Contains(t, got, "image/png")
	assert.IsNonDecreasing(t, got)
	for _, ct := range got {
		assert.True(t, strings.HasPrefix(ct, "image/"), ct)
	}
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NoError(t, ValidateKey(key))
	assert.Equal(t, "image/png", ContentTypeForKey(key))

	other, err := GenerateKey("image/png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = GenerateKey("application/pdf")
	assert.ErrorIs(t, err, uploads.ErrInvalidContentType)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "generated shape", key: "uploads/0190a6c2-7d1e-7b3a-9c4f-1a2b3c4d5e6f.png"},
		{name: "empty", key: "", wantErr: true},
		{name: "wrong prefix", key: "other/a.png", wantErr: true},
		{name: "prefix only", key: "uploads/", wantErr: true},
		{name: "traversal", key: "uploads/../secret", wantErr: true},
		{name: "nested", key: "uploads/a/b.png", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, uploads.ErrInvalidKey)
				return
			}
			assert.NoError(t, err)
		})
	}
}
