package model

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinRating and MaxRating bound every rating bucket.
const (
	MinRating = 0
	MaxRating = 5
)

// Listing is one canonical business record derived from a spreadsheet row.
// Listings are built once per ingestion cycle and never mutated afterwards.
type Listing struct {
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Rating      int      `json:"rating"`
	Address     string   `json:"address,omitempty"`
	Category    string   `json:"category,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Raw         []string `json:"-"`
}

// Key returns a stable identifier for the listing derived from its name and
// coordinates. Two ingestion cycles producing the same shop yield the same key.
func (l Listing) Key() string {
	normalized := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(l.Name)),
		strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		strconv.FormatFloat(l.Longitude, 'f', -1, 64),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)[:16]
}

// HasCoordinates reports whether both coordinates are finite.
func (l Listing) HasCoordinates() bool {
	return isFinite(l.Latitude) && isFinite(l.Longitude)
}

// Bucket returns the rating category used for grouping and color-coding.
func (l Listing) Bucket() int {
	return Bucket(float64(l.Rating))
}

// Initials returns the avatar letter shown next to a listing in list views.
func (l Listing) Initials() string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return "S"
	}
	for _, r := range fields[0] {
		return strings.ToUpper(string(r))
	}
	return "S"
}

// Bucket maps a raw rating to its whole-star category in [0,5].
// NaN is treated as unrated.
func Bucket(r float64) int {
	if math.IsNaN(r) || r <= MinRating {
		return MinRating
	}
	if r >= MaxRating {
		return MaxRating
	}
	return int(math.Floor(r))
}

// StarsText renders a rating as five filled/empty star glyphs.
func StarsText(rating int) string {
	full := Bucket(float64(rating))
	return strings.Repeat("★", full) + strings.Repeat("☆", MaxRating-full)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
