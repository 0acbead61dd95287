package catalog

import "time"

// WorkforceGroup is a closed enumeration of the workforce segments training
// content can be scoped to.
type WorkforceGroup string

const (
	GroupAllStaff       WorkforceGroup = "all_staff"
	GroupClinical       WorkforceGroup = "clinical"
	GroupAdministrative WorkforceGroup = "administrative"
	GroupManagement     WorkforceGroup = "management"
	GroupIT             WorkforceGroup = "it"
)

var AllGroups = []WorkforceGroup{
	GroupAllStaff,
	GroupClinical,
	GroupAdministrative,
	GroupManagement,
	GroupIT,
}

func (g WorkforceGroup) Valid() bool {
	for _, known := range AllGroups {
		if g == known {
			return true
		}
	}
	return false
}

func (g WorkforceGroup) String() string { return string(g) }

// GroupsIntersect reports whether the two group sets share at least one group.
func GroupsIntersect(a, b []WorkforceGroup) bool {
	for _, ga := range a {
		for _, gb := range b {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

// Material is an immutable, versioned unit of reading content. Materials are
// never deleted, only superseded by a higher Version.
type Material struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SequenceNumber  int              `json:"sequence_number"`
	WorkforceGroups []WorkforceGroup `json:"workforce_groups"`
	Version         int              `json:"version"`
	ReleasedAt      time.Time        `json:"released_at"` // UTC
}

// AppliesTo reports whether the material is part of the curriculum of any of
// the given groups.
func (m Material) AppliesTo(groups []WorkforceGroup) bool {
	return GroupsIntersect(m.WorkforceGroups, groups)
}

// Quiz is an immutable published assessment. PassingScore is a 0-100 percentage;
// MaxAttempts of 0 means unlimited retakes.
type Quiz struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SequenceNumber  int              `json:"sequence_number"`
	WorkforceGroups []WorkforceGroup `json:"workforce_groups"`
	PassingScore    int              `json:"passing_score"`
	MaxAttempts     int              `json:"max_attempts"`
	Version         int              `json:"version"`
}

func (q Quiz) AppliesTo(groups []WorkforceGroup) bool {
	return GroupsIntersect(q.WorkforceGroups, groups)
}

// Question holds the canonical option set and answer key; CorrectAnswer is never
// exposed to quiz takers.
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quiz_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"-"`
	HIPAASection  string   `json:"hipaa_section,omitempty"`
	Rationale     string   `json:"-"`
}

func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}
