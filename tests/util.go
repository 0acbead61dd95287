package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/member"
	logsvc "github.com/veritrain/veritrain/services/logger"
)

// Now is the frozen instant all test fixtures hang off.
var Now = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a core.Clock pinned to Now.
func Clock() core.Clock {
	return core.FixedClock(Now)
}

func NewLogger() core.Logger {
	return logsvc.NewConsoleLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
}

func CreateMember(
	t *testing.T,
	repo member.Repository,
	orgID, name, email, pwd string,
	groups []catalog.WorkforceGroup,
	isAdmin bool,
) member.Member {
	t.Helper()

	mem := member.Member{
		ID:              uuid.New().String(),
		OrgID:           orgID,
		Name:            name,
		Email:           email,
		WorkforceGroups: groups,
		IsAdmin:         isAdmin,
		IsActive:        true,
		CreatedAt:       Now,
		UpdatedAt:       Now,
	}
	if pwd != "" {
		if err := mem.SetPassword(pwd); err != nil {
			t.Fatalf("CreateMember() failed: %v", err)
		}
	}
	mem, err := repo.CreateMember(context.Background(), mem)
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return mem
}

func NewMaterial(title string, seq int, groups ...catalog.WorkforceGroup) catalog.Material {
	if len(groups) == 0 {
		groups = []catalog.WorkforceGroup{catalog.GroupAllStaff}
	}
	return catalog.Material{
		ID:              uuid.New().String(),
		Title:           title,
		SequenceNumber:  seq,
		WorkforceGroups: groups,
		Version:         1,
		ReleasedAt:      Now.Add(-24 * time.Hour),
	}
}

func NewQuiz(title string, seq, passingScore, maxAttempts int, groups ...catalog.WorkforceGroup) catalog.Quiz {
	if len(groups) == 0 {
		groups = []catalog.WorkforceGroup{catalog.GroupAllStaff}
	}
	return catalog.Quiz{
		ID:              uuid.New().String(),
		Title:           title,
		SequenceNumber:  seq,
		WorkforceGroups: groups,
		PassingScore:    passingScore,
		MaxAttempts:     maxAttempts,
		Version:         1,
	}
}

func NewQuestion(quizID, prompt, correct string, options ...string) catalog.Question {
	return catalog.Question{
		ID:            uuid.New().String(),
		QuizID:        quizID,
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
	}
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	orgID, memberID string,
	group catalog.WorkforceGroup,
	dueDate time.Time,
) assignment.Assignment {
	t.Helper()

	a := assignment.Assignment{
		ID:             uuid.New().String(),
		OrgID:          orgID,
		MemberID:       memberID,
		WorkforceGroup: group,
		DueDate:        dueDate,
		Status:         assignment.StatusAssigned,
		CreatedAt:      Now,
		UpdatedAt:      Now,
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}
