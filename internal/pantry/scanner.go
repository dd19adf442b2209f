// Package pantry turns a photo of a fridge or cupboard into a list of
// ingredient names that can be fed straight into ingredient search.
package pantry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

const (
	MaxWidth       = 800
	MaxIngredients = 40
	scanTimeout    = 45 * time.Second
)

const prompt = `List the food ingredients visible in this photo.
Respond with JSON only, in the form {"ingredients": ["name", "name"]}.
Use short lowercase generic names such as "tomato" or "cheddar cheese".
Do not include brands, containers or quantities.
If there is no food in the photo, respond with {"ingredients": []}.`

var ErrNoJSON = errors.New("no JSON object in model response")

// Vision is a multimodal model that answers a text prompt about one image.
type Vision interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Cache stores scan results by image hash.
type Cache interface {
	Get(ctx context.Context, hash string) ([]string, bool, error)
	Set(ctx context.Context, hash string, ingredients []string) error
}

type Scanner struct {
	vision Vision
	cache  Cache
	log    *logger.Logger
}

// NewScanner builds a scanner. A nil vision disables scanning; a nil cache
// disables caching.
func NewScanner(vision Vision, cache Cache, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{vision: vision, cache: cache, log: log.With("service", "PantryScanner")}
}

func (s *Scanner) Enabled() bool { return s.vision != nil }

// Scan returns the normalised ingredient names found in data, which must be
// a JPEG or PNG image.
func (s *Scanner) Scan(ctx context.Context, data []byte) ([]string, error) {
	if !s.Enabled() {
		return nil, apierr.New(apierr.KindUnavailable, "pantry_scan_disabled", "Pantry scanning is not configured")
	}
	mimeType := http.DetectContentType(data)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, apierr.Validation("unsupported_image", "Only JPEG and PNG images are allowed")
	}

	hash := ImageHash(data)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, hash)
		if err != nil {
			s.log.Warn("pantry cache read failed", "image_hash", hash, "error", err)
		} else if ok {
			s.log.Debug("pantry scan served from cache", "image_hash", hash)
			return cached, nil
		}
	}

	scaled, err := downscale(data)
	if err != nil {
		return nil, &apierr.Error{Kind: apierr.KindValidation, Code: "invalid_image", Msg: "The image could not be decoded", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	s.log.Info("scanning pantry photo", "image_hash", hash, "bytes", len(scaled))
	text, err := s.vision.Generate(ctx, prompt, scaled, "image/jpeg")
	if err != nil {
		s.log.Error("vision model call failed", "image_hash", hash, "error", err)
		return nil, &apierr.Error{Kind: apierr.KindUnavailable, Code: "pantry_scan_failed", Msg: "The image could not be analysed right now", Err: err}
	}
	ingredients, err := ParseIngredients(text)
	if err != nil {
		s.log.Error("vision model returned unusable output", "image_hash", hash, "error", err)
		return nil, &apierr.Error{Kind: apierr.KindUnavailable, Code: "pantry_scan_failed", Msg: "The image could not be analysed right now", Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hash, ingredients); err != nil {
			s.log.Warn("pantry cache write failed", "image_hash", hash, "error", err)
		}
	}
	return ingredients, nil
}

// ImageHash is the hex SHA-256 of the raw upload.
func ImageHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// downscale re-encodes the image as JPEG, shrinking it to MaxWidth when wider.
func downscale(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > MaxWidth {
		img = resize.Resize(MaxWidth, 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseIngredients extracts the {"ingredients": [...]} object from a model
// reply, tolerating surrounding prose or code fences.
func ParseIngredients(text string) ([]string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSON
	}
	var out struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model response: %w", err)
	}
	return normalize(out.Ingredients), nil
}

// normalize lower-cases, trims and de-duplicates names, keeping first-seen
// order.
func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.Join(strings.Fields(n), " "))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == MaxIngredients {
			break
		}
	}
	return out
}
