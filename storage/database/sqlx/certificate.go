package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/certificate"
)

type certificateRepository struct {
	exec core.DBExecutor
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(exec core.DBExecutor) *certificateRepository {
	return &certificateRepository{exec: exec}
}

type certificateRow struct {
	ID                string    `db:"id"`
	AttemptID         string    `db:"attempt_id"`
	OrgID             string    `db:"org_id"`
	MemberID          string    `db:"member_id"`
	QuizID            string    `db:"quiz_id"`
	CertificateNumber string    `db:"certificate_number"`
	Score             int       `db:"score"`
	IssuedAt          time.Time `db:"issued_at"`
	ValidUntil        time.Time `db:"valid_until"`
}

func (repo certificateRepository) unrow(row certificateRow) certificate.Certificate {
	return certificate.Certificate{
		ID:                row.ID,
		AttemptID:         row.AttemptID,
		OrgID:             row.OrgID,
		MemberID:          row.MemberID,
		QuizID:            row.QuizID,
		CertificateNumber: row.CertificateNumber,
		Score:             row.Score,
		IssuedAt:          row.IssuedAt,
		ValidUntil:        row.ValidUntil,
	}
}

func (repo certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) error {
	row := certificateRow{
		ID:                cert.ID,
		AttemptID:         cert.AttemptID,
		OrgID:             cert.OrgID,
		MemberID:          cert.MemberID,
		QuizID:            cert.QuizID,
		CertificateNumber: cert.CertificateNumber,
		Score:             cert.Score,
		IssuedAt:          cert.IssuedAt.UTC(),
		ValidUntil:        cert.ValidUntil.UTC(),
	}
	_, err := repo.exec.NamedExecContext(ctx,
		`INSERT INTO certificate (id, attempt_id, org_id, member_id, quiz_id, certificate_number, score, issued_at, valid_until)
		 VALUES (:id, :attempt_id, :org_id, :member_id, :quiz_id, :certificate_number, :score, :issued_at, :valid_until)`, row)
	if err != nil {
		// attempt_id is UNIQUE; the first insert wins and later ones re-read it
		if isUniqueViolation(err) {
			return certificate.ErrDuplicateCertificate
		}
		return errors.Wrap(err, "inserting certificate")
	}
	return nil
}

func (repo certificateRepository) GetCertificateByAttemptID(ctx context.Context, attemptID string) (certificate.Certificate, error) {
	var row certificateRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM certificate WHERE attempt_id = $1`, attemptID); err != nil {
		if err == sql.ErrNoRows {
			return certificate.Certificate{}, certificate.ErrNotFound
		}
		return certificate.Certificate{}, errors.Wrap(err, "getting certificate by attempt")
	}
	return repo.unrow(row), nil
}

func (repo certificateRepository) GetCertificateByNumber(ctx context.Context, number string) (certificate.Certificate, error) {
	var row certificateRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM certificate WHERE certificate_number = $1`, number); err != nil {
		if err == sql.ErrNoRows {
			return certificate.Certificate{}, certificate.ErrNotFound
		}
		return certificate.Certificate{}, errors.Wrap(err, "getting certificate by number")
	}
	return repo.unrow(row), nil
}

func (repo certificateRepository) QueryCertificatesByMember(ctx context.Context, memberID string) ([]certificate.Certificate, error) {
	var rows []certificateRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM certificate WHERE member_id = $1 ORDER BY issued_at DESC`, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "querying certificates by member")
	}
	certs := make([]certificate.Certificate, 0, len(rows))
	for _, row := range rows {
		certs = append(certs, repo.unrow(row))
	}
	return certs, nil
}
