// Package dummydb is an in-memory store used in tests and debug runs. Each
// table guards its map with a RWMutex and enforces the same unique keys the
// real schema does.
package dummydb

import (
	"sync"

	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
)

type (
	DB struct {
		member      *memberTable
		catalog     *catalogTable
		progress    *progressTable
		assignment  *assignmentTable
		attempt     *attemptTable
		certificate *certificateTable
		audit       *auditTable
	}

	memberTable struct {
		sync.RWMutex
		table map[string]*member.Member
	}

	catalogTable struct {
		sync.RWMutex
		materials map[string]*catalog.Material
		quizzes   map[string]*catalog.Quiz
		questions map[string][]catalog.Question // by quiz ID
		overrides map[string]int                // "orgID:quizID" -> passing score
	}

	progressTable struct {
		sync.RWMutex
		table map[string]progress.Record // "memberID:materialID"
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}

	attemptTable struct {
		sync.RWMutex
		table map[string]*grading.Attempt
	}

	certificateTable struct {
		sync.RWMutex
		table map[string]*certificate.Certificate // by attempt ID
	}

	auditTable struct {
		sync.RWMutex
		table []audit.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		member: &memberTable{table: make(map[string]*member.Member)},
		catalog: &catalogTable{
			materials: make(map[string]*catalog.Material),
			quizzes:   make(map[string]*catalog.Quiz),
			questions: make(map[string][]catalog.Question),
			overrides: make(map[string]int),
		},
		progress:    &progressTable{table: make(map[string]progress.Record)},
		assignment:  &assignmentTable{table: make(map[string]*assignment.Assignment)},
		attempt:     &attemptTable{table: make(map[string]*grading.Attempt)},
		certificate: &certificateTable{table: make(map[string]*certificate.Certificate)},
		audit:       &auditTable{},
	}
	return db, nil
}
