package pantry

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

type fakeVision struct {
	reply string
	err   error
	calls int
	width int
	mime  string
}

func (f *fakeVision) Generate(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	f.calls++
	f.mime = mimeType
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		f.width = img.Bounds().Dx()
	}
	return f.reply, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestScanDownscalesAndNormalizes(t *testing.T) {
	vision := &fakeVision{reply: "Sure!\n```json\n{\"ingredients\": [\" Tomato \", \"EGG\", \"tomato\", \"\", \"red  onion\"]}\n```"}
	s := NewScanner(vision, nil, logger.Nop())

	got, err := s.Scan(context.Background(), pngBytes(t, 1600, 40))
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato", "egg", "red onion"}, got)
	assert.Equal(t, MaxWidth, vision.width)
	assert.Equal(t, "image/jpeg", vision.mime)
}

func TestScanKeepsSmallImagesAtSize(t *testing.T) {
	vision := &fakeVision{reply: `{"ingredients":["milk"]}`}
	s := NewScanner(vision, nil, nil)

	got, err := s.Scan(context.Background(), jpegBytes(t, 320, 200))
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, got)
	assert.Equal(t, 320, vision.width)
}

func TestScanDisabled(t *testing.T) {
	_, err := NewScanner(nil, nil, nil).Scan(context.Background(), pngBytes(t, 10, 10))
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindUnavailable))
	assert.Equal(t, "pantry_scan_disabled", apierr.From(err).Code)
}

func TestScanRejectsNonImages(t *testing.T) {
	vision := &fakeVision{}
	_, err := NewScanner(vision, nil, nil).Scan(context.Background(), []byte("just some text"))
	require.Error(t, err)
	assert.Equal(t, "unsupported_image", apierr.From(err).Code)
	assert.Zero(t, vision.calls)
}

func TestScanRejectsCorruptImage(t *testing.T) {
	data := pngBytes(t, 10, 10)[:40]
	_, err := NewScanner(&fakeVision{}, nil, nil).Scan(context.Background(), data)
	require.Error(t, err)
	assert.Equal(t, "invalid_image", apierr.From(err).Code)
}

func TestScanModelFailure(t *testing.T) {
	_, err := NewScanner(&fakeVision{err: errors.New("quota")}, nil, nil).Scan(context.Background(), pngBytes(t, 10, 10))
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindUnavailable))
	assert.Equal(t, "pantry_scan_failed", apierr.From(err).Code)

	_, err = NewScanner(&fakeVision{reply: "I see a fridge"}, nil, nil).Scan(context.Background(), pngBytes(t, 10, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestScanUsesCacheByImageHash(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	vision := &fakeVision{reply: `{"ingredients":["butter"]}`}
	s := NewScanner(vision, NewRedisCache(client, time.Hour), nil)
	data := pngBytes(t, 12, 12)

	first, err := s.Scan(context.Background(), data)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, []string{"butter"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, vision.calls)
	assert.True(t, mr.Exists("cookmate:pantry:"+ImageHash(data)))
}

func TestScanIgnoresCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	vision := &fakeVision{reply: `{"ingredients":["rice"]}`}
	got, err := NewScanner(vision, NewRedisCache(client, 0), nil).Scan(context.Background(), pngBytes(t, 12, 12))
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, got)
}

func TestParseIngredients(t *testing.T) {
	got, err := ParseIngredients(`{"ingredients": []}`)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = ParseIngredients(`{"ingredients": "egg"}`)
	assert.Error(t, err)

	_, err = ParseIngredients(`} nothing {`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestImageHashIsStable(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ImageHash(nil))
	assert.Len(t, ImageHash([]byte("x")), 64)
}
