// Package promptfmt holds the formatting helpers the step library shares:
// building numbered listings of prior replies for integration prompts, and
// leniently extracting a JSON array (or a single patched field) out of a
// model reply that is supposed to be JSON but, being LLM output, sometimes
// isn't quite.
package promptfmt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

// StripCodeFences removes a single leading/trailing Markdown code fence
// (``` or ```json) that models love to wrap JSON in, despite being asked
// for raw JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(s[:nl])
		// Drop a language tag line ("json", "JSON", ...).
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t{}[]\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractStringArray parses s as a JSON array of strings after stripping
// code fences. It first tries strict encoding/json; on failure it falls
// back to gjson's lenient array walk (tolerating trailing commas and
// non-string elements coerced via String()). When both fail, ok is false
// and the caller is expected to demote to a single-element array holding
// the raw text.
func ExtractStringArray(raw string) (items []string, ok bool) {
	stripped := StripCodeFences(raw)

	var strict []string
	if err := json.Unmarshal([]byte(stripped), &strict); err == nil {
		return strict, true
	}

	result := gjson.Parse(stripped)
	if !result.IsArray() {
		return nil, false
	}
	var lenient []string
	result.ForEach(func(_, value gjson.Result) bool {
		lenient = append(lenient, value.String())
		return true
	})
	if len(lenient) == 0 {
		return nil, false
	}
	return lenient, true
}

// WithRawTextFallback demotes a failed ExtractStringArray to a
// single-element array holding the raw reply.
func WithRawTextFallback(raw string) []string {
	if items, ok := ExtractStringArray(raw); ok {
		return items
	}
	return []string{raw}
}

// Persona is one expert persona proposed by the integrator for
// execute_expert_team: a short display Name and the Role system-prompt text
// a fanned-out model is told to adopt.
type Persona struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// PatchMissingRole uses sjson to inject a "role" field into a persona JSON
// object that omitted it, without having to round-trip the whole object
// through a Go struct just to set one field.
func PatchMissingRole(personaJSON, fallbackRole string) string {
	if gjson.Get(personaJSON, "role").Exists() {
		return personaJSON
	}
	patched, err := sjson.Set(personaJSON, "role", fallbackRole)
	if err != nil {
		return personaJSON
	}
	return patched
}

// ExtractPersonas parses raw as a JSON array of persona objects after
// stripping code fences. It tries strict encoding/json first; on failure it
// falls back to a gjson array walk, and for any element missing a "role"
// field it calls PatchMissingRole (using the element's "name", or
// fallbackRole if that is also absent) before re-parsing that element. When
// nothing in raw resembles a JSON array, ok is false.
func ExtractPersonas(raw, fallbackRole string) (personas []Persona, ok bool) {
	stripped := StripCodeFences(raw)

	var strict []Persona
	if err := json.Unmarshal([]byte(stripped), &strict); err == nil && len(strict) > 0 {
		complete := make([]Persona, len(strict))
		for i, p := range strict {
			if p.Role == "" {
				p.Role = fallbackOrName(p.Name, fallbackRole)
			}
			complete[i] = p
		}
		return complete, true
	}

	result := gjson.Parse(stripped)
	if !result.IsArray() {
		return nil, false
	}
	var lenient []Persona
	result.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			name := value.String()
			lenient = append(lenient, Persona{Name: name, Role: fallbackOrName(name, fallbackRole)})
			return true
		}
		name := value.Get("name").String()
		patched := PatchMissingRole(value.Raw, fallbackOrName(name, fallbackRole))
		lenient = append(lenient, Persona{
			Name: name,
			Role: gjson.Get(patched, "role").String(),
		})
		return true
	})
	if len(lenient) == 0 {
		return nil, false
	}
	return lenient, true
}

func fallbackOrName(name, fallbackRole string) string {
	if name != "" {
		return name
	}
	return fallbackRole
}

// NumberedListing renders items as a "1. ...\n2. ..." block, the shape
// execute_critics, integrate_standard and integrate_report all build
// before handing it to the integrator as part of a user message.
func NumberedListing(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}

// ReplyListing renders replies as a numbered "N. <model>: <content>" block.
func ReplyListing(replies []core.ModelReply) string {
	items := make([]string, len(replies))
	for i, r := range replies {
		items[i] = fmt.Sprintf("%s: %s", r.Model, r.Content)
	}
	return NumberedListing(items)
}

// ReplyListingWithThought renders replies as a numbered block including
// both the thought and content fields, for integrate_deep_thought.
func ReplyListingWithThought(replies []core.ModelReply) string {
	items := make([]string, len(replies))
	for i, r := range replies {
		items[i] = fmt.Sprintf("%s:\n  thought: %s\n  answer: %s", r.Model, r.Thought, r.Content)
	}
	return NumberedListing(items)
}
