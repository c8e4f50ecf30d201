package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateFilename(t *testing.T) {
	name := GenerateFilename("My Photo.JPG")

	require.True(t, strings.HasSuffix(name, ".jpg"), "extension is lowercased: %s", name)
	require.NotContains(t, name, " ")
	require.NotContains(t, name, "/")

	// Two generated names for the same input must differ
	require.NotEqual(t, name, GenerateFilename("My Photo.JPG"))
}

func TestAllowedExtension(t *testing.T) {
	allowed := []string{".jpg", ".jpeg", ".png"}

	require.True(t, AllowedExtension("photo.jpg", allowed))
	require.True(t, AllowedExtension("photo.JPEG", allowed))
	require.True(t, AllowedExtension("photo.PNG", allowed))
	require.False(t, AllowedExtension("photo.gif", allowed))
	require.False(t, AllowedExtension("photo", allowed))
	require.False(t, AllowedExtension("photo.jpg.exe", allowed))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "plain filename", input: "1700000000-42.jpg", wantOK: true},
		{name: "path traversal", input: "../etc/passwd"},
		{name: "embedded slash", input: "a/b.jpg"},
		{name: "backslash", input: `a\b.jpg`},
		{name: "dot dir", input: ".."},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, ok := SanitizeFilename(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.input, base)
			}
		})
	}
}

func TestThumbnailFilename(t *testing.T) {
	require.Equal(t, "a_thumb.jpg", ThumbnailFilename("a.jpg"))
	require.Equal(t, "1700000000-42_thumb.png", ThumbnailFilename("1700000000-42.png"))
	require.Equal(t, "noext_thumb", ThumbnailFilename("noext"))
}
