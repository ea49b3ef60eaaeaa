package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/codevault/internal/config"
	"github.com/samber/lo"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	defaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	ratings       = []string{"g", "pg", "r", "x"}
)

// URL returns the avatar URL of a student's email address.
// It is empty when avatars are disabled or the student has no email.
// Options gravatar would reject are left out of the query.
func URL(email string, cfg *config.GravatarConfig) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(email))
	avatar := baseURL + hex.EncodeToString(sum[:])

	params := url.Values{}
	if ValidDefaultImage(cfg.DefaultImage) {
		params.Set("d", cfg.DefaultImage)
	}
	if ValidRating(cfg.Rating) {
		params.Set("r", cfg.Rating)
	}
	if ValidSize(cfg.Size) {
		params.Set("s", strconv.Itoa(cfg.Size))
	}

	if len(params) == 0 {
		return avatar
	}
	return avatar + "?" + params.Encode()
}

// ValidDefaultImage reports whether gravatar knows the fallback image.
func ValidDefaultImage(image string) bool {
	return lo.Contains(defaultImages, image)
}

// ValidRating reports whether rating is a gravatar content rating.
func ValidRating(rating string) bool {
	return lo.Contains(ratings, rating)
}

// ValidSize reports whether size is within 1 to 2048 pixels.
func ValidSize(size int) bool {
	return size >= 1 && size <= 2048
}
