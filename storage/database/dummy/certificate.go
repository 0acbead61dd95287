package dummydb

import (
	"context"
	"sort"

	"github.com/veritrain/veritrain/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cert.AttemptID]; ok {
		return certificate.ErrDuplicateCertificate
	}
	repo.db.table[cert.AttemptID] = &cert
	return nil
}

func (repo *certificateRepository) GetCertificateByAttemptID(ctx context.Context, attemptID string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.table[attemptID]; ok {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateByNumber(ctx context.Context, number string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cert := range repo.db.table {
		if cert.CertificateNumber == number {
			return *cert, nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) QueryCertificatesByMember(ctx context.Context, memberID string) ([]certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	certs := make([]certificate.Certificate, 0)
	for _, cert := range repo.db.table {
		if cert.MemberID == memberID {
			certs = append(certs, *cert)
		}
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs, nil
}
