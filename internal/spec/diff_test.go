package spec

import (
	"testing"
)

func TestDiffSpecs_AddRemoveUpdate(t *testing.T) {
	old := testSpec(feat("auth"), feat("api", "auth"), feat("legacy"))
	new := testSpec(feat("auth"), feat("ui"))
	f := new.Features["auth"]
	f.Requirements = []string{"login"}
	new.Features["auth"] = f

	d := DiffSpecs(old, new)

	if len(d.Added) != 1 || d.Added[0] != "ui" {
		t.Errorf("Expected added [ui], got %v", d.Added)
	}
	if len(d.Removed) != 2 {
		t.Errorf("Expected 2 removed, got %v", d.Removed)
	}
	if len(d.Updated) != 1 || d.Updated[0] != "auth" {
		t.Errorf("Expected updated [auth], got %v", d.Updated)
	}
	if changed := d.FieldChanges["auth"]; len(changed) != 1 || changed[0] != "requirements" {
		t.Errorf("Expected field change [requirements], got %v", changed)
	}
	if d.MetadataChanged {
		t.Error("Metadata did not change")
	}
}

func TestDiffSpecs_Identical(t *testing.T) {
	s := testSpec(feat("auth"), feat("api", "auth"))

	d := DiffSpecs(s, s.Clone())
	if !d.Empty() {
		t.Errorf("Expected empty diff for identical specs, got %+v", d)
	}
}

func TestDiffSpecs_MetadataOnly(t *testing.T) {
	old := testSpec(feat("auth"))
	new := old.Clone()
	new.Overview = "now with an overview"

	d := DiffSpecs(old, new)
	if !d.MetadataChanged {
		t.Error("Expected metadata change")
	}
	if len(d.Added)+len(d.Removed)+len(d.Updated) != 0 {
		t.Errorf("Expected no feature changes, got %+v", d)
	}
	if d.Empty() {
		t.Error("Diff with metadata change is not empty")
	}
}

func TestDiffSpecs_NilArguments(t *testing.T) {
	s := testSpec(feat("auth"))

	d := DiffSpecs(nil, s)
	if len(d.Added) != 1 {
		t.Errorf("Nil old should report every feature as added, got %v", d.Added)
	}

	d = DiffSpecs(s, nil)
	if len(d.Removed) != 1 {
		t.Errorf("Nil new should report every feature as removed, got %v", d.Removed)
	}
}

func TestDiff_AffectedFeatures(t *testing.T) {
	d := Diff{Added: []string{"c"}, Removed: []string{"a"}, Updated: []string{"b"}}

	got := d.AffectedFeatures()
	want := []string{"a", "b", "c"}
	if !stringsEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
