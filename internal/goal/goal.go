// Package goal handles goal-spec string parsing and validation. A goal
// spec names the shape of a reading commitment the way a ticker names a
// contract: PAGES:{days}, CHAPTERS:{days}, or ENGAGE:{bucket}.
package goal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Supported goal kinds.
const (
	KindPages      = "PAGES"
	KindChapters   = "CHAPTERS"
	KindEngagement = "ENGAGE"
)

// specRegex matches: {KIND}:{param}
// Examples: PAGES:7, CHAPTERS:14, ENGAGE:4-7
var specRegex = regexp.MustCompile(`^([A-Z]+):([0-9]+(?:-[0-9]+)?|8\+)$`)

var validBuckets = map[string]bool{
	"1-3": true,
	"4-7": true,
	"8+":  true,
}

var (
	ErrInvalidSpec   = errors.New("goal: invalid spec format")
	ErrInvalidKind   = errors.New("goal: unsupported goal kind")
	ErrInvalidBucket = errors.New("goal: unsupported engagement bucket")
)

// Spec is a parsed goal specification. Days is set for page and chapter
// goals; Bucket for engagement goals.
type Spec struct {
	Raw    string `json:"raw"`
	Kind   string `json:"kind"`
	Days   int    `json:"days,omitempty"`
	Bucket string `json:"bucket,omitempty"`
}

// Parse parses and validates a goal spec string.
// Format: {PAGES|CHAPTERS}:{days} or ENGAGE:{1-3|4-7|8+}
func Parse(spec string) (*Spec, error) {
	matches := specRegex.FindStringSubmatch(spec)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected PAGES:{days}, CHAPTERS:{days}, or ENGAGE:{bucket})",
			ErrInvalidSpec, spec)
	}

	kind := matches[1]
	param := matches[2]

	switch kind {
	case KindPages, KindChapters:
		days, err := strconv.Atoi(param)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("%w: day count %q", ErrInvalidSpec, param)
		}
		return &Spec{Raw: spec, Kind: kind, Days: days}, nil

	case KindEngagement:
		if !validBuckets[param] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBucket, param)
		}
		return &Spec{Raw: spec, Kind: kind, Bucket: param}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
}

// Timeframe renders a human-readable description of the spec, used as the
// wager's timeframe label.
func (s *Spec) Timeframe() string {
	switch s.Kind {
	case KindPages:
		return fmt.Sprintf("%d days", s.Days)
	case KindChapters:
		return fmt.Sprintf("%d days (chapters)", s.Days)
	default:
		return fmt.Sprintf("%s engagements", s.Bucket)
	}
}
