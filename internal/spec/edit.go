package spec

// StructuredEdit is the closed union of mutations the controller accepts.
// The unexported marker method seals the set: every edit shape is known at
// compile time, so the controller and all callers agree on payload shape.
type StructuredEdit interface {
	// Target returns the feature ID the edit addresses, or "" for
	// metadata-level edits.
	Target() string

	isEdit()
}

// AddFeature introduces a new feature to the specification.
type AddFeature struct {
	ID                 string
	Name               string
	Description        string
	Priority           Priority
	Requirements       []string
	AcceptanceCriteria []string
	DependsOn          []string
}

func (e AddFeature) Target() string { return e.ID }
func (AddFeature) isEdit()          {}

// RemoveFeature removes a feature from the specification.
type RemoveFeature struct {
	ID string
}

func (e RemoveFeature) Target() string { return e.ID }
func (RemoveFeature) isEdit()          {}

// UpdateFeature changes fields of an existing feature. Pointer fields
// distinguish "leave unchanged" (nil) from "set to this value", so an
// update can clear a field without a separate edit kind. Collection
// fields replace wholesale: key and element removal is expressible.
type UpdateFeature struct {
	ID                 string
	Name               *string
	Description        *string
	Priority           *Priority
	Requirements       *[]string
	AcceptanceCriteria *[]string
	DependsOn          *[]string
	TechnicalDetails   *map[string]string
}

func (e UpdateFeature) Target() string { return e.ID }
func (UpdateFeature) isEdit()          {}

// UpdateMetadata changes spec-level fields: project name, overview, and
// architecture entries. Nil pointers leave fields unchanged; a non-nil
// Architecture replaces the map wholesale.
type UpdateMetadata struct {
	Project      *string
	Overview     *string
	Architecture *map[string]string
}

func (UpdateMetadata) Target() string { return "" }
func (UpdateMetadata) isEdit()        {}

// compile-time seal check
var (
	_ StructuredEdit = AddFeature{}
	_ StructuredEdit = RemoveFeature{}
	_ StructuredEdit = UpdateFeature{}
	_ StructuredEdit = UpdateMetadata{}
)
