package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/PNG", "banner"))
	assert.True(t, ValidateImageType("", "banner.JPEG"))
	assert.False(t, ValidateImageType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateImageType("", "notes.txt"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeForFilename("a.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.bin"))
}

func TestKeysAndURLs(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "eu-west-1", ImagesBucket: "imgs"}}

	key := EmbedImageKey("42", "e1", "../../etc/banner.png")
	assert.Equal(t, "embeds/42/e1/banner.png", key)

	url := s.PublicObjectURL(key)
	assert.Equal(t, "https://imgs.s3.eu-west-1.amazonaws.com/embeds/42/e1/banner.png", url)

	got, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = s.KeyFromURL("https://cdn.example.com/banner.png")
	assert.False(t, ok)
}
