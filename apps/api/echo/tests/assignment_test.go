package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/catalog"
	testutil "github.com/veritrain/veritrain/tests"
)

var errPermissionDenied = httpErr{Error: "permission denied"}

func Test_assignmentApi_mine(t *testing.T) {
	org := "org-assign-mine"
	mem := testutil.CreateMember(t, memberRepo, org, "Work Er", "mine@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)
	empty := testutil.CreateMember(t, memberRepo, org, "No Work", "mine-empty@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)

	a1 := testutil.CreateAssignment(t, assignRepo, org, mem.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 10))
	a2 := testutil.CreateAssignment(t, assignRepo, org, mem.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 1, 0))

	tests := []httpTest{
		{name: "not authenticated", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no assignments", token: getToken(t, empty), wantCode: http.StatusOK, wantData: []byte("[]")},
		{name: "own assignments by due date", token: getToken(t, mem), wantCode: http.StatusOK,
			wantData: marchallObj(t, []assignment.Assignment{a1, a2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/assignments", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_create(t *testing.T) {
	org := "org-assign-create"

	// released content exists for all_staff but not for management
	catalogRepo.AddMaterial(testutil.NewMaterial("Welcome Aboard", 1, catalog.GroupAllStaff))

	admin := testutil.CreateMember(t, memberRepo, org, "Ad Min", "assign-admin@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, true)
	mem := testutil.CreateMember(t, memberRepo, org, "Work Er", "assign-target@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)
	outsider := testutil.CreateMember(t, memberRepo, "org-assign-other", "Out Sider", "assign-outsider@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)

	adminToken := getToken(t, admin)
	dueDate := testutil.Now.AddDate(0, 1, 0)

	newAssignment := func(memberID, orgID string, group catalog.WorkforceGroup) []byte {
		return marchallObj(t, assignment.NewAssignment{
			OrgID:          orgID,
			MemberID:       memberID,
			WorkforceGroup: group,
			DueDate:        dueDate,
		})
	}

	tests := []httpTest{
		{name: "not authenticated", body: newAssignment(mem.ID, "", catalog.GroupAllStaff),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin only", token: getToken(t, mem), body: newAssignment(mem.ID, "", catalog.GroupAllStaff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "foreign organization", token: adminToken, body: newAssignment(mem.ID, "org-lol", catalog.GroupAllStaff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "member outside organization", token: adminToken, body: newAssignment(outsider.ID, "", catalog.GroupAllStaff),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "missing due date", token: adminToken,
			body: marchallObj(t, assignment.NewAssignment{MemberID: mem.ID, WorkforceGroup: catalog.GroupAllStaff}),
			wantCode: http.StatusBadRequest},
		{name: "due date in the past", token: adminToken,
			body: marchallObj(t, assignment.NewAssignment{
				MemberID: mem.ID, WorkforceGroup: catalog.GroupAllStaff, DueDate: testutil.Now.AddDate(0, 0, -10),
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"due_date": "due date cannot be in the past"})},
		{name: "no released content for group", token: adminToken, body: newAssignment(mem.ID, "", catalog.GroupManagement),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"workforce_group": "no released training content for this workforce group"})},
		{name: "success", token: adminToken, body: newAssignment(mem.ID, "", catalog.GroupAllStaff),
			wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.name == "success" {
				if rec.Code != http.StatusCreated {
					t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
				}
				var a assignment.Assignment
				if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
					t.Fatalf("unmarshaling Assignment: %v", err)
				}
				assert.NotEmpty(t, a.ID)
				assert.Equal(t, org, a.OrgID)
				assert.Equal(t, mem.ID, a.MemberID)
				assert.Equal(t, assignment.StatusAssigned, a.Status)
				assert.Equal(t, dueDate.UTC(), a.DueDate.UTC())
				assert.Nil(t, a.CompletedAt)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_queryOrg(t *testing.T) {
	org := "org-assign-query"
	admin := testutil.CreateMember(t, memberRepo, org, "Ad Min", "query-admin@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, true)
	mem := testutil.CreateMember(t, memberRepo, org, "Work Er", "query-member@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)
	foreign := testutil.CreateMember(t, memberRepo, "org-assign-query2", "For Eign", "query-foreign@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)

	a1 := testutil.CreateAssignment(t, assignRepo, org, mem.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 5))
	a2 := testutil.CreateAssignment(t, assignRepo, org, admin.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 15))
	testutil.CreateAssignment(t, assignRepo, foreign.OrgID, foreign.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 5))

	tests := []httpTest{
		{name: "not authenticated", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin only", token: getToken(t, mem),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "only own organization", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []assignment.Assignment{a1, a2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/assignments/org", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_retrieve(t *testing.T) {
	org := "org-assign-get"
	admin := testutil.CreateMember(t, memberRepo, org, "Ad Min", "get-admin@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, true)
	mem := testutil.CreateMember(t, memberRepo, org, "Work Er", "get-member@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)
	foreign := testutil.CreateMember(t, memberRepo, "org-assign-get2", "For Eign", "get-foreign@test.cd", "p4ssw0rd!",
		[]catalog.WorkforceGroup{catalog.GroupAllStaff}, false)

	a := testutil.CreateAssignment(t, assignRepo, org, mem.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 20))
	foreignA := testutil.CreateAssignment(t, assignRepo, foreign.OrgID, foreign.ID, catalog.GroupAllStaff, testutil.Now.AddDate(0, 0, 20))

	tests := []httpTest{
		{name: "not authenticated", path: a.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin only", path: a.ID, token: getToken(t, mem),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "unknown id", path: "lol", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "foreign organization", path: foreignA.ID, token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "success", path: a.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, a)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/assignments/"+tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
