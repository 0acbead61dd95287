package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/member"
)

var testNow = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAssignmentRepo struct {
	table map[string]*Assignment
}

func newFakeAssignmentRepo(assignments ...Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{table: make(map[string]*Assignment)}
	for i := range assignments {
		a := assignments[i]
		repo.table[a.ID] = &a
	}
	return repo
}

func (f *fakeAssignmentRepo) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	f.table[a.ID] = &a
	return a, nil
}

func (f *fakeAssignmentRepo) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	if a, ok := f.table[id]; ok {
		return *a, nil
	}
	return Assignment{}, ErrNotFound
}

func (f *fakeAssignmentRepo) QueryAssignmentsByMember(ctx context.Context, memberID string, ordering ...core.DBOrdering) ([]Assignment, error) {
	assignments := make([]Assignment, 0)
	for _, a := range f.table {
		if a.MemberID == memberID {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (f *fakeAssignmentRepo) QueryAssignmentsByOrg(ctx context.Context, orgID string, ordering ...core.DBOrdering) ([]Assignment, error) {
	assignments := make([]Assignment, 0)
	for _, a := range f.table {
		if a.OrgID == orgID {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (f *fakeAssignmentRepo) UpdateAssignmentStatus(ctx context.Context, id string, status Status, completedAt *time.Time, updatedAt time.Time) (Assignment, error) {
	a, ok := f.table[id]
	if !ok {
		return Assignment{}, ErrNotFound
	}
	if a.Status.CanAdvanceTo(status) {
		a.Status = status
		a.CompletedAt = completedAt
		a.UpdatedAt = updatedAt
	}
	return *a, nil
}

type fakeRecorder struct {
	events []audit.Event
}

func (f *fakeRecorder) AppendEvent(ctx context.Context, evt audit.Event) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeRecorder) QueryEventsByOrg(ctx context.Context, orgID string) ([]audit.Event, error) {
	return f.events, nil
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestService(repo Repository) *Service {
	clock := core.FixedClock(testNow)
	auditSvc := audit.NewService(&fakeRecorder{}, nopLogger{}, clock)
	return NewService(repo, nil, nil, auditSvc, nil, nil, nopLogger{}, clock)
}

func TestStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusAssigned, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusAssigned, false},
		{StatusAssigned, StatusAssigned, false},
		{StatusCompleted, "lol", false},
	}
	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.want {
			t.Errorf("%s.CanAdvanceTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAssignment_IsOverdue(t *testing.T) {
	due := testNow

	tests := []struct {
		name string
		a    Assignment
		now  time.Time
		want bool
	}{
		{name: "before due date", a: Assignment{DueDate: due, Status: StatusAssigned}, now: due.Add(-time.Hour)},
		{name: "on the due date", a: Assignment{DueDate: due, Status: StatusInProgress}, now: due},
		{name: "past due and unfinished", a: Assignment{DueDate: due, Status: StatusInProgress}, now: due.Add(time.Hour), want: true},
		{name: "past due but completed", a: Assignment{DueDate: due, Status: StatusCompleted}, now: due.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsOverdue(tt.now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_Create_rejectsPastDueDate(t *testing.T) {
	repo := newFakeAssignmentRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), NewAssignment{
		OrgID:          "org1",
		MemberID:       "mem1",
		WorkforceGroup: catalog.GroupClinical,
		DueDate:        testNow.AddDate(0, 0, -10),
	})
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("Create() error = %v, want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "due_date" {
		t.Errorf("Fields = %v, want a single due_date error", vErr.Fields)
	}
	if len(repo.table) != 0 {
		t.Errorf("assignments stored = %d, want 0", len(repo.table))
	}
}

func TestService_HandleMaterialCompleted(t *testing.T) {
	ctx := context.Background()
	clinical := catalog.GroupClinical
	mem := member.Member{ID: "mem1", OrgID: "org1", WorkforceGroups: []catalog.WorkforceGroup{clinical}}
	mat := catalog.Material{ID: "m1", WorkforceGroups: []catalog.WorkforceGroup{clinical}}

	newAssignment := func(id string, status Status, group catalog.WorkforceGroup) Assignment {
		return Assignment{
			ID:             id,
			OrgID:          mem.OrgID,
			MemberID:       mem.ID,
			WorkforceGroup: group,
			DueDate:        testNow.AddDate(0, 1, 0),
			Status:         status,
		}
	}

	t.Run("first completion starts the assignment", func(t *testing.T) {
		repo := newFakeAssignmentRepo(newAssignment("a1", StatusAssigned, clinical))
		svc := newTestService(repo)

		if err := svc.HandleMaterialCompleted(ctx, mem, mat, 1, 3); err != nil {
			t.Fatalf("HandleMaterialCompleted() failed: %v", err)
		}
		a, _ := repo.GetAssignment(ctx, "a1")
		if a.Status != StatusInProgress {
			t.Errorf("Status = %s, want %s", a.Status, StatusInProgress)
		}
		if a.CompletedAt != nil {
			t.Errorf("CompletedAt = %v, want nil", a.CompletedAt)
		}
	})

	t.Run("reaching the full count completes the assignment", func(t *testing.T) {
		repo := newFakeAssignmentRepo(newAssignment("a1", StatusInProgress, clinical))
		svc := newTestService(repo)

		if err := svc.HandleMaterialCompleted(ctx, mem, mat, 3, 3); err != nil {
			t.Fatalf("HandleMaterialCompleted() failed: %v", err)
		}
		a, _ := repo.GetAssignment(ctx, "a1")
		if a.Status != StatusCompleted {
			t.Errorf("Status = %s, want %s", a.Status, StatusCompleted)
		}
		if a.CompletedAt == nil || !a.CompletedAt.Equal(testNow) {
			t.Errorf("CompletedAt = %v, want %v", a.CompletedAt, testNow)
		}
	})

	t.Run("single completion can complete a one material curriculum", func(t *testing.T) {
		repo := newFakeAssignmentRepo(newAssignment("a1", StatusAssigned, clinical))
		svc := newTestService(repo)

		if err := svc.HandleMaterialCompleted(ctx, mem, mat, 1, 1); err != nil {
			t.Fatalf("HandleMaterialCompleted() failed: %v", err)
		}
		a, _ := repo.GetAssignment(ctx, "a1")
		if a.Status != StatusCompleted {
			t.Errorf("Status = %s, want %s", a.Status, StatusCompleted)
		}
	})

	t.Run("completed assignments never regress", func(t *testing.T) {
		done := newAssignment("a1", StatusCompleted, clinical)
		repo := newFakeAssignmentRepo(done)
		svc := newTestService(repo)

		if err := svc.HandleMaterialCompleted(ctx, mem, mat, 1, 3); err != nil {
			t.Fatalf("HandleMaterialCompleted() failed: %v", err)
		}
		a, _ := repo.GetAssignment(ctx, "a1")
		if a.Status != StatusCompleted {
			t.Errorf("Status = %s, want %s", a.Status, StatusCompleted)
		}
	})

	t.Run("other groups are untouched", func(t *testing.T) {
		repo := newFakeAssignmentRepo(newAssignment("a1", StatusAssigned, catalog.GroupIT))
		svc := newTestService(repo)

		if err := svc.HandleMaterialCompleted(ctx, mem, mat, 1, 3); err != nil {
			t.Fatalf("HandleMaterialCompleted() failed: %v", err)
		}
		a, _ := repo.GetAssignment(ctx, "a1")
		if a.Status != StatusAssigned {
			t.Errorf("Status = %s, want %s", a.Status, StatusAssigned)
		}
	})
}

func TestService_ComplianceStatus(t *testing.T) {
	ctx := context.Background()
	clinical := []catalog.WorkforceGroup{catalog.GroupClinical}
	mem := member.Member{ID: "mem1", OrgID: "org1", WorkforceGroups: clinical}

	newAssignment := func(status Status, due time.Time) Assignment {
		return Assignment{
			ID:             "a-" + due.Format("20060102") + "-" + string(status),
			OrgID:          mem.OrgID,
			MemberID:       mem.ID,
			WorkforceGroup: catalog.GroupClinical,
			DueDate:        due,
			Status:         status,
		}
	}

	tests := []struct {
		name        string
		mem         member.Member
		assignments []Assignment
		want        ComplianceStatus
	}{
		{name: "no workforce group", mem: member.Member{ID: "mem1"}, want: ComplianceNoData},
		{name: "no assignments", mem: mem, want: ComplianceNoData},
		{name: "due in a month", mem: mem,
			assignments: []Assignment{newAssignment(StatusAssigned, testNow.AddDate(0, 1, 0))},
			want:        ComplianceCompliant},
		{name: "due within seven days", mem: mem,
			assignments: []Assignment{newAssignment(StatusInProgress, testNow.AddDate(0, 0, 3))},
			want:        ComplianceAtRisk},
		{name: "due in exactly seven days", mem: mem,
			assignments: []Assignment{newAssignment(StatusAssigned, testNow.AddDate(0, 0, 7))},
			want:        ComplianceAtRisk},
		{name: "due in eight days", mem: mem,
			assignments: []Assignment{newAssignment(StatusAssigned, testNow.AddDate(0, 0, 8))},
			want:        ComplianceCompliant},
		{name: "overdue", mem: mem,
			assignments: []Assignment{newAssignment(StatusAssigned, testNow.AddDate(0, 0, -1))},
			want:        ComplianceNonCompliant},
		{name: "overdue wins over at risk", mem: mem,
			assignments: []Assignment{
				newAssignment(StatusInProgress, testNow.AddDate(0, 0, 3)),
				newAssignment(StatusAssigned, testNow.AddDate(0, 0, -1)),
			},
			want: ComplianceNonCompliant},
		{name: "completed assignments are never overdue", mem: mem,
			assignments: []Assignment{
				newAssignment(StatusCompleted, testNow.AddDate(0, 0, -10)),
				newAssignment(StatusAssigned, testNow.AddDate(0, 1, 0)),
			},
			want: ComplianceCompliant},
		{name: "completed before a near due date is not at risk", mem: mem,
			assignments: []Assignment{newAssignment(StatusCompleted, testNow.AddDate(0, 0, 3))},
			want:        ComplianceCompliant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeAssignmentRepo(tt.assignments...))
			got, err := svc.ComplianceStatus(ctx, tt.mem)
			if err != nil {
				t.Fatalf("ComplianceStatus() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ComplianceStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
