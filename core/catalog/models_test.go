package catalog

import "testing"

func TestWorkforceGroup_Valid(t *testing.T) {
	for _, g := range AllGroups {
		if !g.Valid() {
			t.Errorf("%q should be valid", g)
		}
	}
	for _, g := range []WorkforceGroup{"", "lol", "ALL_STAFF"} {
		if g.Valid() {
			t.Errorf("%q should not be valid", g)
		}
	}
}

func TestGroupsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b []WorkforceGroup
		want bool
	}{
		{name: "nil sets"},
		{name: "disjoint", a: []WorkforceGroup{GroupClinical}, b: []WorkforceGroup{GroupIT}},
		{name: "shared group", a: []WorkforceGroup{GroupClinical, GroupIT}, b: []WorkforceGroup{GroupIT}, want: true},
		{name: "no hierarchy between groups", a: []WorkforceGroup{GroupAllStaff}, b: []WorkforceGroup{GroupClinical}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupsIntersect(tt.a, tt.b); got != tt.want {
				t.Errorf("GroupsIntersect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuestion_HasOption(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c"}}
	if !q.HasOption("b") {
		t.Error(`HasOption("b") = false, want true`)
	}
	if q.HasOption("d") {
		t.Error(`HasOption("d") = true, want false`)
	}
}
