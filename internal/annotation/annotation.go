package annotation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Recognized annotation tags (always lower case).
const (
	Test        = "test"
	Description = "description"
	Before      = "before"
	After       = "after"
	BeforeClass = "beforeclass"
	AfterClass  = "afterclass"
	Ignore      = "ignore"
	Expect      = "expect"
	Timeout     = "timeout"
)

// markerPattern matches `@tag` or `@tag(payload)`, swallowing an optional closing
// quote and semicolon so string-literal statements and comments both parse.
var markerPattern = regexp.MustCompile(`@(\w+)(?:\(([^)\n]*)\))?["']?;?`)

// Annotations maps lower-cased tag names to their optional payload.
type Annotations map[string]*string

// Extract scans the source text of a callable for annotation markers.
// Later occurrences of a tag overwrite earlier ones.
func Extract(source string) Annotations {
	annotations := make(Annotations)

	for _, match := range markerPattern.FindAllStringSubmatchIndex(source, -1) {
		tag := strings.ToLower(source[match[2]:match[3]])

		var payload *string
		if match[4] >= 0 {
			value := source[match[4]:match[5]]
			payload = &value
		}
		annotations[tag] = payload
	}

	return annotations
}

// Has reports whether the tag was declared, with or without payload.
func (a Annotations) Has(tag string) bool {
	_, ok := a[strings.ToLower(tag)]
	return ok
}

// Value returns the payload of a tag and whether a payload was given.
func (a Annotations) Value(tag string) (string, bool) {
	payload, ok := a[strings.ToLower(tag)]
	if !ok || payload == nil {
		return "", false
	}
	return *payload, true
}

// Description returns the @description payload or an empty string.
func (a Annotations) Description() string {
	value, _ := a.Value(Description)
	return value
}

// Ignore returns the ignore reason and whether the member is ignored.
func (a Annotations) Ignore() (string, bool) {
	if !a.Has(Ignore) {
		return "", false
	}
	reason, _ := a.Value(Ignore)
	return reason, true
}

// Expect returns the declared expected error kind.
func (a Annotations) Expect() (string, bool) {
	if !a.Has(Expect) {
		return "", false
	}
	kind, _ := a.Value(Expect)
	return strings.TrimSpace(kind), true
}

// Timeout returns the @timeout payload interpreted as milliseconds. Zero means
// no timeout was declared.
func (a Annotations) Timeout() (time.Duration, error) {
	value, ok := a.Value(Timeout)
	if !ok {
		return 0, nil
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", value)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
