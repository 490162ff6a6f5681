package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// jsonEnvelopeVersion is the current shape version of JSON columns.
const jsonEnvelopeVersion = 1

// jsonEnvelope wraps persisted JSON column payloads.
type jsonEnvelope[T any] struct {
	Version int `json:"version"`
	Items   T   `json:"items"`
}

func marshalEnvelope[T any](label string, items T) (driver.Value, error) {
	data, errMarshal := json.Marshal(jsonEnvelope[T]{Version: jsonEnvelopeVersion, Items: items})
	if errMarshal != nil {
		return nil, fmt.Errorf("%s marshal: %w", label, errMarshal)
	}
	return data, nil
}

// scanEnvelope decodes a versioned envelope, falling back to the legacy bare
// shape written before envelopes existed.
func scanEnvelope[T any](label string, value any, target *T) error {
	if target == nil {
		return fmt.Errorf("%s scan: nil receiver", label)
	}
	var data []byte
	switch typed := value.(type) {
	case nil:
		var zero T
		*target = zero
		return nil
	case []byte:
		data = typed
	case string:
		data = []byte(typed)
	default:
		return fmt.Errorf("%s scan: unsupported type %T", label, value)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		var zero T
		*target = zero
		return nil
	}

	if data[0] == '{' {
		var probe struct {
			Version int             `json:"version"`
			Items   json.RawMessage `json:"items"`
		}
		if errProbe := json.Unmarshal(data, &probe); errProbe == nil && probe.Version > 0 && probe.Items != nil {
			if probe.Version > jsonEnvelopeVersion {
				return fmt.Errorf("%s scan: unsupported version %d", label, probe.Version)
			}
			var out T
			if errItems := json.Unmarshal(probe.Items, &out); errItems != nil {
				return fmt.Errorf("%s scan: %w", label, errItems)
			}
			*target = out
			return nil
		}
	}

	var legacy T
	if errLegacy := json.Unmarshal(data, &legacy); errLegacy != nil {
		return fmt.Errorf("%s scan: invalid json: %w", label, errLegacy)
	}
	*target = legacy
	return nil
}

// Weekday keys accepted in OpeningHours.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// DayHours describes opening hours for one weekday.
type DayHours struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
}

// OpeningHours maps lowercase weekday names to their hours.
type OpeningHours map[string]DayHours

// Value implements driver.Valuer.
func (h OpeningHours) Value() (driver.Value, error) {
	if h == nil {
		h = OpeningHours{}
	}
	return marshalEnvelope("opening hours", map[string]DayHours(h))
}

// Scan implements sql.Scanner.
func (h *OpeningHours) Scan(value any) error {
	var out map[string]DayHours
	if errScan := scanEnvelope("opening hours", value, &out); errScan != nil {
		return errScan
	}
	*h = OpeningHours(out)
	return nil
}

// Validate checks weekday keys and HH:MM times on open days.
func (h OpeningHours) Validate() error {
	for day, hours := range h {
		if !isWeekday(day) {
			return fmt.Errorf("opening hours: unknown weekday %q", day)
		}
		if !hours.IsOpen {
			continue
		}
		if !clockPattern.MatchString(hours.OpenTime) {
			return fmt.Errorf("opening hours: %s open time must be HH:MM", day)
		}
		if !clockPattern.MatchString(hours.CloseTime) {
			return fmt.Errorf("opening hours: %s close time must be HH:MM", day)
		}
	}
	return nil
}

func isWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Slider is a homepage carousel entry.
type Slider struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl"`
	Order    int    `json:"order"`
}

// Sliders is the JSON column holding homepage sliders.
type Sliders []Slider

// Value implements driver.Valuer.
func (s Sliders) Value() (driver.Value, error) {
	if s == nil {
		s = Sliders{}
	}
	return marshalEnvelope("sliders", []Slider(s))
}

// Scan implements sql.Scanner.
func (s *Sliders) Scan(value any) error {
	var out []Slider
	if errScan := scanEnvelope("sliders", value, &out); errScan != nil {
		return errScan
	}
	*s = Sliders(out)
	return nil
}

// Normalize assigns IDs to entries that lack one.
func (s Sliders) Normalize() Sliders {
	for i := range s {
		s[i].ID = strings.TrimSpace(s[i].ID)
		if s[i].ID == "" {
			s[i].ID = uuid.NewString()
		}
	}
	return s
}

// Validate checks IDs are unique and required fields are present.
func (s Sliders) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, slider := range s {
		if slider.ID == "" {
			return fmt.Errorf("sliders[%d]: missing id", i)
		}
		if _, ok := seen[slider.ID]; ok {
			return fmt.Errorf("sliders[%d]: duplicate id %q", i, slider.ID)
		}
		seen[slider.ID] = struct{}{}
		if strings.TrimSpace(slider.Title) == "" {
			return fmt.Errorf("sliders[%d]: missing title", i)
		}
	}
	return nil
}

// Testimonial is a curated quote shown on the homepage.
type Testimonial struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Order        int    `json:"order"`
}

// Testimonials is the JSON column holding homepage testimonials.
type Testimonials []Testimonial

// Value implements driver.Valuer.
func (t Testimonials) Value() (driver.Value, error) {
	if t == nil {
		t = Testimonials{}
	}
	return marshalEnvelope("testimonials", []Testimonial(t))
}

// Scan implements sql.Scanner.
func (t *Testimonials) Scan(value any) error {
	var out []Testimonial
	if errScan := scanEnvelope("testimonials", value, &out); errScan != nil {
		return errScan
	}
	*t = Testimonials(out)
	return nil
}

// Normalize assigns IDs to entries that lack one.
func (t Testimonials) Normalize() Testimonials {
	for i := range t {
		t[i].ID = strings.TrimSpace(t[i].ID)
		if t[i].ID == "" {
			t[i].ID = uuid.NewString()
		}
	}
	return t
}

// Validate checks IDs, names and the 1..5 rating range.
func (t Testimonials) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for i, item := range t {
		if item.ID == "" {
			return fmt.Errorf("testimonials[%d]: missing id", i)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("testimonials[%d]: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
		if strings.TrimSpace(item.CustomerName) == "" {
			return fmt.Errorf("testimonials[%d]: missing customer name", i)
		}
		if item.Rating < 1 || item.Rating > 5 {
			return fmt.Errorf("testimonials[%d]: rating must be between 1 and 5", i)
		}
	}
	return nil
}

// SocialLink is a link to one of the restaurant's social profiles.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Enabled  bool   `json:"enabled"`
}

// SocialLinks is the JSON column holding homepage social links.
type SocialLinks []SocialLink

// Value implements driver.Valuer.
func (l SocialLinks) Value() (driver.Value, error) {
	if l == nil {
		l = SocialLinks{}
	}
	return marshalEnvelope("social links", []SocialLink(l))
}

// Scan implements sql.Scanner.
func (l *SocialLinks) Scan(value any) error {
	var out []SocialLink
	if errScan := scanEnvelope("social links", value, &out); errScan != nil {
		return errScan
	}
	*l = SocialLinks(out)
	return nil
}

// Validate requires a platform and an absolute URL on enabled links.
func (l SocialLinks) Validate() error {
	for i, link := range l {
		if strings.TrimSpace(link.Platform) == "" {
			return fmt.Errorf("socialLinks[%d]: missing platform", i)
		}
		if !link.Enabled && strings.TrimSpace(link.URL) == "" {
			continue
		}
		parsed, errParse := url.Parse(strings.TrimSpace(link.URL))
		if errParse != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("socialLinks[%d]: invalid url", i)
		}
	}
	return nil
}

// FeatureFlags is the per-subscription snapshot of plan features.
type FeatureFlags map[string]bool

// Value implements driver.Valuer.
func (f FeatureFlags) Value() (driver.Value, error) {
	if f == nil {
		f = FeatureFlags{}
	}
	return marshalEnvelope("features", map[string]bool(f))
}

// Scan implements sql.Scanner. Legacy rows stored either a bare object or a
// list of enabled feature names.
func (f *FeatureFlags) Scan(value any) error {
	var out map[string]bool
	errScan := scanEnvelope("features", value, &out)
	if errScan == nil {
		*f = FeatureFlags(out)
		return nil
	}
	var names []string
	if errList := scanEnvelope("features", value, &names); errList != nil {
		return errScan
	}
	flags := make(FeatureFlags, len(names))
	for _, name := range names {
		flags[name] = true
	}
	*f = flags
	return nil
}

// Validate rejects blank feature names.
func (f FeatureFlags) Validate() error {
	for name := range f {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("features: blank feature name")
		}
	}
	return nil
}
