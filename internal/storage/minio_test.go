package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/tiff", ".tiff"},
		{"application/pdf", ".pdf"},
		{"text/plain", ".bin"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetFileExtension(tt.contentType), tt.contentType)
	}
}

func TestTrimBucket(t *testing.T) {
	BucketName = "bills"
	assert.Equal(t, "1/2024/04/a.png", trimBucket("bills/1/2024/04/a.png"))
	assert.Equal(t, "1/2024/04/a.png", trimBucket("1/2024/04/a.png"))
}
