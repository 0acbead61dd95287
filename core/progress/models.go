package progress

import (
	"time"

	"github.com/veritrain/veritrain/core/catalog"
)

// Record marks one material as completed by one member. Write-once: duplicates
// per (member, material) are a no-op, never an error.
type Record struct {
	MemberID        string    `json:"member_id"`
	MaterialID      string    `json:"material_id"`
	MaterialVersion int       `json:"material_version"` // version at completion time
	CompletedAt     time.Time `json:"completed_at"`     // UTC
}

// QuizState is the computed unlock state of one quiz for one member.
type QuizState string

const (
	StateLocked   QuizState = "locked"
	StateUnlocked QuizState = "unlocked"
	StateFailed   QuizState = "failed"
	// StatePassed is terminal: once any attempt passes, later failed retakes
	// never revert it (best successful outcome wins).
	StatePassed QuizState = "passed"
)

// Attemptable reports whether a member may submit an attempt in this state.
// Only a locked quiz blocks; a passed quiz can still be retaken without
// affecting its terminal state.
func (s QuizState) Attemptable() bool {
	return s != StateLocked && s != ""
}

// MaterialState pairs a required material with the member's completion fact.
type MaterialState struct {
	Material    catalog.Material `json:"material"`
	Completed   bool             `json:"completed"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"` // UTC
}

// QuizOverview pairs a quiz with its computed unlock state and retake usage.
type QuizOverview struct {
	Quiz         catalog.Quiz `json:"quiz"`
	State        QuizState    `json:"state"`
	AttemptsUsed int          `json:"attempts_used"`
}

// TrainingState is the member-facing snapshot of the whole curriculum.
type TrainingState struct {
	Materials          []MaterialState `json:"materials"`
	Quizzes            []QuizOverview  `json:"quizzes"`
	MaterialsCompleted int             `json:"materials_completed"`
	MaterialsRequired  int             `json:"materials_required"`
}
