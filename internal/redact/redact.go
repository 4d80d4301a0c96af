// Package redact scrubs credentials from text that leaves the process: log
// fields, error messages and response previews.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// Kind names the class of a detected secret
type Kind string

const (
	KindConfigured   Kind = "configured"
	KindOpenAIKey    Kind = "openai_key"
	KindAnthropicKey Kind = "anthropic_key"
	KindGoogleKey    Kind = "google_key"
	KindBearer       Kind = "bearer"
	KindQueryKey     Kind = "query_key"
	KindHeaderKey    Kind = "header_key"
)

// Placeholder replaces every redacted span
const Placeholder = "[REDACTED]"

// MinSecretLength is the shortest configured value New accepts. Shorter
// values would match ordinary words and are left to the pattern rules.
const MinSecretLength = 8

// rule matches a secret. When group is non-zero only that submatch is
// replaced so surrounding context such as "key=" survives.
type rule struct {
	kind    Kind
	pattern *regexp.Regexp
	group   int
}

// Order matters: more specific prefixes come first so sk-ant- is not
// reported as an OpenAI key.
var rules = []rule{
	{kind: KindAnthropicKey, pattern: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_\-]{20,}`)},
	{kind: KindOpenAIKey, pattern: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{20,}`)},
	{kind: KindGoogleKey, pattern: regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`)},
	{kind: KindBearer, pattern: regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-\.=]{8,})`), group: 1},
	{kind: KindQueryKey, pattern: regexp.MustCompile(`(?i)[?&](?:key|api_key|apikey)=([^&\s"']+)`), group: 1},
	{kind: KindHeaderKey, pattern: regexp.MustCompile(`(?i)\bx-api-key["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{8,})`), group: 1},
}

// Detection is one secret found in a string
type Detection struct {
	Kind  Kind
	Start int
	End   int
}

// Redactor replaces known secret values and well-known key shapes
type Redactor struct {
	secrets []string
}

// New creates a Redactor that also removes the exact values given. Values
// shorter than MinSecretLength are ignored.
func New(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if len(s) >= MinSecretLength {
			r.secrets = append(r.secrets, s)
		}
	}
	// longest first so a key that contains another is removed whole
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
	return r
}

// Detect returns the non-overlapping secret spans of s in order
func (r *Redactor) Detect(s string) []Detection {
	var found []Detection

	if r != nil {
		for _, secret := range r.secrets {
			for offset := 0; ; {
				i := strings.Index(s[offset:], secret)
				if i < 0 {
					break
				}
				start := offset + i
				found = append(found, Detection{Kind: KindConfigured, Start: start, End: start + len(secret)})
				offset = start + len(secret)
			}
		}
	}

	for _, rl := range rules {
		for _, m := range rl.pattern.FindAllStringSubmatchIndex(s, -1) {
			start, end := m[0], m[1]
			if rl.group > 0 {
				start, end = m[2*rl.group], m[2*rl.group+1]
			}
			if start >= 0 {
				found = append(found, Detection{Kind: rl.kind, Start: start, End: end})
			}
		}
	}

	return merge(found)
}

// String returns s with every detected secret replaced by Placeholder
func (r *Redactor) String(s string) string {
	detections := r.Detect(s)
	if len(detections) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, d := range detections {
		b.WriteString(s[last:d.Start])
		b.WriteString(Placeholder)
		last = d.End
	}
	b.WriteString(s[last:])
	return b.String()
}

// Map redacts string values of m in place, descending into nested maps
func (r *Redactor) Map(m map[string]interface{}) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			m[k] = r.String(val)
		case map[string]interface{}:
			r.Map(val)
		}
	}
}

// String redacts well-known key shapes only
func String(s string) string {
	return (*Redactor)(nil).String(s)
}

// merge sorts detections and folds overlapping spans together
func merge(found []Detection) []Detection {
	if len(found) <= 1 {
		return found
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	out := found[:1]
	for _, d := range found[1:] {
		prev := &out[len(out)-1]
		if d.Start < prev.End {
			if d.End > prev.End {
				prev.End = d.End
			}
			continue
		}
		out = append(out, d)
	}
	return out
}
