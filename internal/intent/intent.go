// Package intent translates free-text edit requests into structured edit
// proposals. It is strictly a proposal generator: parsing never mutates
// state, and unrecognized input is reported as a non-match rather than an
// error, because every proposal is user-confirmed before it reaches the
// controller's apply path.
package intent

import (
	"regexp"
	"strings"

	"specsync/internal/spec"
)

// Matchers are ordered: the first pattern that matches wins. Each captures
// the subject of the edit; list-valued fields are split on commas and
// "and".
var (
	addFeatureRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:add|create|introduce)\s+(?:a\s+|the\s+)?(?:new\s+)?feature\s+(?:called\s+|named\s+)?['"]?([^'"]+?)['"]?(?:\s+(?:that|which|to)\s+(.+?))?(?:\s+with\s+requirements?\s+(.+))?$`)

	removeFeatureRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:remove|delete|drop)\s+(?:the\s+)?['"]?([\w][\w\s-]*?)['"]?(?:\s+feature)?$`)

	priorityRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:set|change|make)\s+(?:the\s+)?['"]?([\w][\w\s-]*?)['"]?(?:\s+feature)?(?:'s)?\s+priority\s+to\s+(low|medium|high)$`)

	renameRe = regexp.MustCompile(`(?i)^(?:please\s+)?rename\s+(?:the\s+)?(?:feature\s+)?['"]?([\w][\w\s-]*?)['"]?\s+to\s+['"]?(.+?)['"]?$`)

	describeProjectRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:set|change|update)\s+(?:the\s+)?(?:project\s+)?overview\s+to\s+['"]?(.+?)['"]?$`)

	renameProjectRe = regexp.MustCompile(`(?i)^(?:please\s+)?rename\s+(?:the\s+)?project\s+to\s+['"]?(.+?)['"]?$`)
)

// Parse translates text into a structured edit proposal. The second return
// is false when the text does not match any known edit shape; Parse never
// returns an error for unparsable input.
func Parse(text string) (spec.StructuredEdit, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ".")
	if text == "" {
		return nil, false
	}

	if m := renameProjectRe.FindStringSubmatch(text); m != nil {
		project := strings.TrimSpace(m[1])
		return spec.UpdateMetadata{Project: &project}, true
	}
	if m := describeProjectRe.FindStringSubmatch(text); m != nil {
		overview := strings.TrimSpace(m[1])
		return spec.UpdateMetadata{Overview: &overview}, true
	}
	if m := addFeatureRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		edit := spec.AddFeature{
			ID:          slugify(name),
			Name:        name,
			Description: strings.TrimSpace(m[2]),
			Priority:    spec.PriorityMedium,
		}
		if reqs := splitList(m[3]); len(reqs) > 0 {
			edit.Requirements = reqs
		}
		return edit, true
	}
	if m := priorityRe.FindStringSubmatch(text); m != nil {
		prio := spec.Priority(strings.ToLower(m[2]))
		return spec.UpdateFeature{ID: slugify(m[1]), Priority: &prio}, true
	}
	if m := renameRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[2])
		return spec.UpdateFeature{ID: slugify(m[1]), Name: &name}, true
	}
	if m := removeFeatureRe.FindStringSubmatch(text); m != nil {
		return spec.RemoveFeature{ID: slugify(m[1])}, true
	}

	return nil, false
}

// slugify lowercases a feature name and joins words with hyphens, matching
// the ID convention the CLI uses for new features.
func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_'
	})
	return strings.Join(fields, "-")
}

// splitList breaks a comma/"and"-separated enumeration into items.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " and ", ",")
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
