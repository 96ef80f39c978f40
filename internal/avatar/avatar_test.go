package avatar

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/resume"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcess_ProducesSquareJPEGDataURI(t *testing.T) {
	uri, err := Process(bytes.NewReader(pngBytes(t, 120, 80)))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	assert.True(t, resume.IsImageDataURI(uri))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestProcess_RejectsNonImage(t *testing.T) {
	_, err := Process(strings.NewReader("definitely not an image"))
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
}

func TestProcess_RejectsOversized(t *testing.T) {
	_, err := Process(bytes.NewReader(make([]byte, MaxBytes+1)))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestCropSquare_Centered(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 4))
	img.Set(5, 2, color.RGBA{R: 255, A: 255})

	sq := CropSquare(img)

	assert.Equal(t, image.Rect(0, 0, 4, 4), sq.Bounds())
	r, _, _, _ := sq.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
