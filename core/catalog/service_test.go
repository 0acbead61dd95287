package catalog

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type fakeCatalogRepo struct {
	Repository // panic on anything the test does not stub

	overrides map[string]int
	err       error
}

func (f *fakeCatalogRepo) GetPassingScoreOverride(ctx context.Context, orgID, quizID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if score, ok := f.overrides[orgID+":"+quizID]; ok {
		return score, nil
	}
	return 0, ErrNoOverride
}

func TestService_PassingScore(t *testing.T) {
	quiz := Quiz{ID: "q1", PassingScore: 80}
	boom := errors.New("boom")

	tests := []struct {
		name    string
		repo    *fakeCatalogRepo
		orgID   string
		want    int
		wantErr error
	}{
		{name: "quiz default", repo: &fakeCatalogRepo{}, orgID: "org1", want: 80},
		{name: "organization override wins",
			repo:  &fakeCatalogRepo{overrides: map[string]int{"org1:q1": 90}},
			orgID: "org1", want: 90},
		{name: "override is per organization",
			repo:  &fakeCatalogRepo{overrides: map[string]int{"org1:q1": 90}},
			orgID: "org2", want: 80},
		{name: "repository error surfaces",
			repo:  &fakeCatalogRepo{err: boom},
			orgID: "org1", wantErr: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo)
			got, err := svc.PassingScore(context.Background(), tt.orgID, quiz)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("PassingScore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PassingScore() = %v, want %v", got, tt.want)
			}
		})
	}
}
