package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/veritrain/veritrain/core/member"
)

type memberRepository struct {
	db *memberTable
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) member.Repository {
	return &memberRepository{db: db.member}
}

func (repo *memberRepository) query() []member.Member {
	members := make([]member.Member, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		members = append(members, *m)
	}
	return members
}

func (repo *memberRepository) CheckEmailUniqueness(ctx context.Context, orgID, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mem := range repo.query() {
		if mem.OrgID == orgID && strings.EqualFold(mem.Email, email) {
			return member.ErrEmailExists
		}
	}
	return nil
}

func (repo *memberRepository) CreateMember(ctx context.Context, mem member.Member) (member.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.OrgID == mem.OrgID && strings.EqualFold(existing.Email, mem.Email) {
			return member.Member{}, member.ErrEmailExists
		}
	}
	repo.db.table[mem.ID] = &mem
	return mem, nil
}

func (repo *memberRepository) GetMemberByID(ctx context.Context, id string) (member.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mem, ok := repo.db.table[id]; ok {
		return *mem, nil
	}
	return member.Member{}, member.ErrNotFound
}

func (repo *memberRepository) GetMemberByEmail(ctx context.Context, email string) (member.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mem := range repo.query() {
		if strings.EqualFold(mem.Email, email) {
			return mem, nil
		}
	}
	return member.Member{}, member.ErrNotFound
}

func (repo *memberRepository) QueryMembersByOrg(ctx context.Context, orgID string) ([]member.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]member.Member, 0)
	for _, mem := range repo.query() {
		if mem.OrgID == orgID {
			members = append(members, mem)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (repo *memberRepository) UpdateMember(ctx context.Context, mem member.Member, isActive *bool) (member.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mem.ID]; !ok {
		return member.Member{}, member.ErrNotFound
	}
	if isActive != nil {
		mem.IsActive = *isActive
	}
	repo.db.table[mem.ID] = &mem
	return mem, nil
}
