package dummydb

import (
	"context"
	"testing"
	"time"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

// Materials scheduled for a future release must stay invisible, matching the
// released_at filter of the SQL repository.
func TestCatalogRepository_releaseGating(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	repo := NewCatalogRepository(db, core.FixedClock(now))

	clinical := []catalog.WorkforceGroup{catalog.GroupClinical}
	repo.AddMaterial(catalog.Material{
		ID: "m1", Title: "Handwashing", SequenceNumber: 1,
		WorkforceGroups: clinical, ReleasedAt: now.Add(-time.Hour),
	})
	repo.AddMaterial(catalog.Material{
		ID: "m2", Title: "Next Quarter Refresher", SequenceNumber: 2,
		WorkforceGroups: clinical, ReleasedAt: now.Add(time.Hour),
	})
	repo.AddMaterial(catalog.Material{
		ID: "m3", Title: "Unscheduled IT Update", SequenceNumber: 1,
		WorkforceGroups: []catalog.WorkforceGroup{catalog.GroupIT}, ReleasedAt: now.Add(24 * time.Hour),
	})

	ctx := context.Background()

	materials, err := repo.QueryMaterialsForGroups(ctx, clinical)
	if err != nil {
		t.Fatalf("QueryMaterialsForGroups() failed: %v", err)
	}
	if len(materials) != 1 || materials[0].ID != "m1" {
		t.Errorf("QueryMaterialsForGroups() = %v, want only m1", materials)
	}

	tests := []struct {
		group catalog.WorkforceGroup
		want  bool
	}{
		{catalog.GroupClinical, true},
		{catalog.GroupIT, false},         // only future-released content
		{catalog.GroupManagement, false}, // no content at all
	}
	for _, tt := range tests {
		got, err := repo.HasReleasedMaterials(ctx, tt.group)
		if err != nil {
			t.Fatalf("HasReleasedMaterials(%s) failed: %v", tt.group, err)
		}
		if got != tt.want {
			t.Errorf("HasReleasedMaterials(%s) = %v, want %v", tt.group, got, tt.want)
		}
	}
}
