package replay

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderName is the response header the edge proxy inspects to re-issue a
	// request somewhere else.
	HeaderName = "fly-replay"
	// SourceHeaderName is added by the proxy to a request it has replayed.
	SourceHeaderName = "fly-replay-src"
)

// Directive is the value of a fly-replay response header.
type Directive struct {
	Region    string
	Instance  string
	App       string
	State     string
	Elsewhere bool
}

// String formats the directive as semicolon separated key=value pairs.
// Directive{Region: "iad"} formats as "region=iad".
func (d Directive) String() string {
	var parts []string
	if d.Region != "" {
		parts = append(parts, "region="+d.Region)
	}
	if d.Instance != "" {
		parts = append(parts, "instance="+d.Instance)
	}
	if d.App != "" {
		parts = append(parts, "app="+d.App)
	}
	if d.State != "" {
		parts = append(parts, "state="+d.State)
	}
	if d.Elsewhere {
		parts = append(parts, "elsewhere=true")
	}
	return strings.Join(parts, ";")
}

// ParseDirective parses a fly-replay header value. Keys are case-insensitive
// and unknown keys are ignored. A directive without any target is an error.
func ParseDirective(value string) (Directive, error) {
	var d Directive
	for key, val := range pairs(value) {
		switch key {
		case "region":
			d.Region = strings.ToLower(val)
		case "instance":
			d.Instance = val
		case "app":
			d.App = val
		case "state":
			d.State = val
		case "elsewhere":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return Directive{}, fmt.Errorf("parse replay directive: elsewhere=%q", val)
			}
			d.Elsewhere = b
		}
	}

	if d.Region == "" && d.Instance == "" && d.App == "" && !d.Elsewhere {
		return Directive{}, fmt.Errorf("parse replay directive %q: no target", value)
	}
	return d, nil
}

// Source describes where a replayed request came from.
type Source struct {
	Instance  string
	Region    string
	State     string
	Timestamp time.Time
}

// ParseSource parses a fly-replay-src request header. The t field is a unix
// timestamp in microseconds.
func ParseSource(value string) (Source, error) {
	var s Source
	for key, val := range pairs(value) {
		switch key {
		case "instance":
			s.Instance = val
		case "region":
			s.Region = strings.ToLower(val)
		case "state":
			s.State = val
		case "t":
			us, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Source{}, fmt.Errorf("parse replay source: t=%q", val)
			}
			s.Timestamp = time.UnixMicro(us)
		}
	}
	if s.Region == "" && s.Instance == "" {
		return Source{}, fmt.Errorf("parse replay source %q: no origin", value)
	}
	return s, nil
}

// pairs yields the key=value fields of a header value. Keys are lowercased,
// and fields without '=' are skipped.
func pairs(value string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, field := range strings.Split(value, ";") {
			key, val, ok := strings.Cut(field, "=")
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if !yield(key, strings.TrimSpace(val)) {
				return
			}
		}
	}
}
