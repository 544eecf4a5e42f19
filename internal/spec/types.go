package spec

import (
	"sort"
	"time"
)

// Priority represents the relative importance of a feature.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Valid reports whether p is one of the defined priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Feature is a named unit of product scope. The ID is immutable once
// assigned; everything else may change across spec versions.
type Feature struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Priority           Priority          `json:"priority"`
	Requirements       []string          `json:"requirements,omitempty"`
	AcceptanceCriteria []string          `json:"acceptance_criteria,omitempty"`
	DependsOn          []string          `json:"depends_on,omitempty"`
	TechnicalDetails   map[string]string `json:"technical_details,omitempty"`
}

// Clone returns a deep copy of the feature.
func (f Feature) Clone() Feature {
	cp := f
	cp.Requirements = cloneStrings(f.Requirements)
	cp.AcceptanceCriteria = cloneStrings(f.AcceptanceCriteria)
	cp.DependsOn = cloneStrings(f.DependsOn)
	cp.TechnicalDetails = cloneStringMap(f.TechnicalDetails)
	return cp
}

// Specification is the root document: project identity plus an unordered
// collection of features keyed by ID. Order of the Features map carries no
// meaning; identity does.
type Specification struct {
	Project      string             `json:"project"`
	Overview     string             `json:"overview,omitempty"`
	Features     map[string]Feature `json:"features"`
	Architecture map[string]string  `json:"architecture,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewSpecification returns an empty specification for the given project.
func NewSpecification(project string) *Specification {
	return &Specification{
		Project:  project,
		Features: make(map[string]Feature),
	}
}

// Clone returns a deep copy of the specification. Controller snapshots are
// cloned on every read so callers can never mutate committed state in place.
func (s *Specification) Clone() *Specification {
	if s == nil {
		return nil
	}
	cp := &Specification{
		Project:   s.Project,
		Overview:  s.Overview,
		Features:  make(map[string]Feature, len(s.Features)),
		UpdatedAt: s.UpdatedAt,
	}
	for id, f := range s.Features {
		cp.Features[id] = f.Clone()
	}
	cp.Architecture = cloneStringMap(s.Architecture)
	return cp
}

// FeatureIDs returns the feature identifiers in sorted order.
func (s *Specification) FeatureIDs() []string {
	ids := make([]string, 0, len(s.Features))
	for id := range s.Features {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Equal reports whether two specifications are structurally equal,
// ignoring the UpdatedAt timestamp.
func (s *Specification) Equal(other *Specification) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Project != other.Project || s.Overview != other.Overview {
		return false
	}
	if len(s.Features) != len(other.Features) {
		return false
	}
	for id, f := range s.Features {
		of, ok := other.Features[id]
		if !ok || !featureEqual(f, of) {
			return false
		}
	}
	return mapsEqual(s.Architecture, other.Architecture)
}

func featureEqual(a, b Feature) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Priority == b.Priority &&
		stringsEqual(a.Requirements, b.Requirements) &&
		stringsEqual(a.AcceptanceCriteria, b.AcceptanceCriteria) &&
		stringsEqual(a.DependsOn, b.DependsOn) &&
		mapsEqual(a.TechnicalDetails, b.TechnicalDetails)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
