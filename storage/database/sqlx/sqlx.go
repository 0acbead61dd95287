// Package sqlxrepos implements the core repository interfaces against Postgres
// using sqlx. Unique-key violations are mapped to the domain sentinels the
// services expect.
package sqlxrepos

import (
	"github.com/lib/pq"

	"github.com/veritrain/veritrain/core/catalog"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique-key violation,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint ...string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != uniqueViolation {
		return false
	}
	if len(constraint) > 0 {
		return pqErr.Constraint == constraint[0]
	}
	return true
}

func groupsToStrings(groups []catalog.WorkforceGroup) pq.StringArray {
	out := make(pq.StringArray, 0, len(groups))
	for _, g := range groups {
		out = append(out, string(g))
	}
	return out
}

func stringsToGroups(ss pq.StringArray) []catalog.WorkforceGroup {
	out := make([]catalog.WorkforceGroup, 0, len(ss))
	for _, s := range ss {
		out = append(out, catalog.WorkforceGroup(s))
	}
	return out
}
