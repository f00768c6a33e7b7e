package domain

import (
	"encoding/json"
	"strings"
)

// Rating classifies the content of a post.
type Rating int

const (
	// RatingUnknown is the fallback for missing or unrecognized input.
	RatingUnknown Rating = iota

	// RatingGeneral marks safe-for-work content.
	RatingGeneral

	// RatingSensitive marks mildly suggestive content.
	RatingSensitive

	// RatingQuestionable marks borderline content.
	RatingQuestionable

	// RatingExplicit marks adult content.
	RatingExplicit
)

// Rating vocabularies as used by the supported platforms. The general
// list is checked first, so the ambiguous "s" resolves to general.
var (
	ratingGeneral      = []string{"s", "safe", "general", "g"}
	ratingSensitive    = []string{"sensitive"}
	ratingQuestionable = []string{"questionable", "q"}
	ratingExplicit     = []string{"e", "explicit"}
)

// ParseRating maps a free-text rating string to a Rating value.
// The lookup is case-insensitive; empty or unrecognized input maps
// to RatingUnknown.
func ParseRating(s string) Rating {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RatingUnknown
	}

	switch {
	case contains(ratingGeneral, s):
		return RatingGeneral
	case contains(ratingSensitive, s):
		return RatingSensitive
	case contains(ratingQuestionable, s):
		return RatingQuestionable
	case contains(ratingExplicit, s):
		return RatingExplicit
	}
	return RatingUnknown
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// String returns the canonical name of the rating.
func (r Rating) String() string {
	switch r {
	case RatingGeneral:
		return "general"
	case RatingSensitive:
		return "sensitive"
	case RatingQuestionable:
		return "questionable"
	case RatingExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the rating as its canonical name.
func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the canonical name and falls back to
// RatingUnknown for anything unrecognized.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRating(s)
	return nil
}
