package s3infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://imgs.s3.eu-west-1.amazonaws.com/posts/a.png", objectURL("", "imgs", "eu-west-1", "posts/a.png"))
	assert.Equal(t, "http://localhost:4566/imgs/posts/a.png", objectURL("http://localhost:4566/", "imgs", "us-east-1", "posts/a.png"))
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", detectContentType("whatever.bin", png))
	assert.Equal(t, "image/jpeg", detectContentType("photo.JPG", []byte{0x00, 0x01}))
	assert.Equal(t, "image/webp", detectContentType("x.webp", []byte("hello")))
	assert.Equal(t, "application/octet-stream", detectContentType("x.dat", []byte{0x00, 0x01}))
}
