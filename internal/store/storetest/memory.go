// Package storetest provides an in-memory store.Store for service tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/store"
	"github.com/shopspring/decimal"
)

// Memory is a map-backed store that enforces the same unique constraints as
// the database: members.email and donations.transaction_id.
type Memory struct {
	mu        sync.Mutex
	nextID    uint
	members   map[uint]db.Member
	donations map[uint]db.Donation
	contents  map[uint]db.Content

	// FailWith, when set, is returned by every write. Used to simulate
	// infrastructure failures.
	FailWith error
}

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{
		members:   make(map[uint]db.Member),
		donations: make(map[uint]db.Donation),
		contents:  make(map[uint]db.Content),
	}
}

func (m *Memory) Members() store.MemberStore     { return memberStore{m} }
func (m *Memory) Donations() store.DonationStore { return donationStore{m} }
func (m *Memory) Contents() store.ContentStore   { return contentStore{m} }

// Transaction snapshots the maps and restores them when fn fails.
func (m *Memory) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	members := cloneMap(m.members)
	donations := cloneMap(m.donations)
	contents := cloneMap(m.contents)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.members, m.donations, m.contents = members, donations, contents
		m.mu.Unlock()
		return err
	}
	return nil
}

// MemberCount, DonationCount and ContentCount expose table sizes to tests.
func (m *Memory) MemberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

func (m *Memory) DonationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.donations)
}

func (m *Memory) ContentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contents)
}

func (m *Memory) assignID() uint {
	m.nextID++
	return m.nextID
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

type memberStore struct{ m *Memory }

func (s memberStore) Create(_ context.Context, member *db.Member) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	for _, existing := range s.m.members {
		if existing.Email == member.Email {
			return store.ErrDuplicate
		}
	}
	member.ID = s.m.assignID()
	stamp(&member.CreatedAt, &member.UpdatedAt)
	s.m.members[member.ID] = *member
	return nil
}

func (s memberStore) Save(_ context.Context, member *db.Member) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	for id, existing := range s.m.members {
		if id != member.ID && existing.Email == member.Email {
			return store.ErrDuplicate
		}
	}
	if member.ID == 0 {
		member.ID = s.m.assignID()
	}
	stamp(&member.CreatedAt, &member.UpdatedAt)
	s.m.members[member.ID] = *member
	return nil
}

func (s memberStore) FindByID(_ context.Context, id uint) (*db.Member, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	member, ok := s.m.members[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &member, nil
}

func (s memberStore) FindAll(_ context.Context) ([]db.Member, error) {
	return s.filter(func(db.Member) bool { return true }), nil
}

func (s memberStore) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.members, id)
	return nil
}

func (s memberStore) Count(_ context.Context) (int64, error) {
	return int64(s.m.MemberCount()), nil
}

func (s memberStore) FindByEmail(_ context.Context, email string) (*db.Member, error) {
	found := s.filter(func(m db.Member) bool { return m.Email == email })
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return &found[0], nil
}

func (s memberStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s memberStore) FindBySubscriptionPlan(_ context.Context, plan string) ([]db.Member, error) {
	return s.filter(func(m db.Member) bool {
		return m.SubscriptionPlan != nil && *m.SubscriptionPlan == plan
	}), nil
}

func (s memberStore) FindBySubscriptionID(_ context.Context, subscriptionID string) (*db.Member, error) {
	found := s.filter(func(m db.Member) bool {
		return m.SubscriptionID != nil && *m.SubscriptionID == subscriptionID
	})
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return &found[0], nil
}

func (s memberStore) CountWithSubscription(_ context.Context) (int64, error) {
	found := s.filter(func(m db.Member) bool { return m.SubscriptionID != nil })
	return int64(len(found)), nil
}

func (s memberStore) FindRecent(_ context.Context, limit int) ([]db.Member, error) {
	members := s.filter(func(db.Member) bool { return true })
	sort.Slice(members, func(i, j int) bool {
		if members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].ID > members[j].ID
		}
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})
	if limit > 0 && len(members) > limit {
		members = members[:limit]
	}
	return members, nil
}

func (s memberStore) filter(keep func(db.Member) bool) []db.Member {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]db.Member, 0, len(s.m.members))
	for _, member := range s.m.members {
		if keep(member) {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type donationStore struct{ m *Memory }

func (s donationStore) Create(_ context.Context, donation *db.Donation) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	for _, existing := range s.m.donations {
		if existing.TransactionID == donation.TransactionID {
			return store.ErrDuplicate
		}
	}
	donation.ID = s.m.assignID()
	stamp(&donation.CreatedAt, &donation.UpdatedAt)
	s.m.donations[donation.ID] = *donation
	return nil
}

func (s donationStore) Save(_ context.Context, donation *db.Donation) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	for id, existing := range s.m.donations {
		if id != donation.ID && existing.TransactionID == donation.TransactionID {
			return store.ErrDuplicate
		}
	}
	if donation.ID == 0 {
		donation.ID = s.m.assignID()
	}
	stamp(&donation.CreatedAt, &donation.UpdatedAt)
	s.m.donations[donation.ID] = *donation
	return nil
}

func (s donationStore) FindByID(_ context.Context, id uint) (*db.Donation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	donation, ok := s.m.donations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &donation, nil
}

func (s donationStore) FindAll(_ context.Context) ([]db.Donation, error) {
	return s.filter(func(db.Donation) bool { return true }), nil
}

func (s donationStore) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.donations, id)
	return nil
}

func (s donationStore) Count(_ context.Context) (int64, error) {
	return int64(s.m.DonationCount()), nil
}

func (s donationStore) FindByTransactionID(_ context.Context, transactionID string) (*db.Donation, error) {
	found := s.filter(func(d db.Donation) bool { return d.TransactionID == transactionID })
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return &found[0], nil
}

func (s donationStore) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	_, err := s.FindByTransactionID(ctx, transactionID)
	return err == nil, nil
}

func (s donationStore) FindByType(_ context.Context, donationType db.DonationType) ([]db.Donation, error) {
	return s.filter(func(d db.Donation) bool { return d.Type == donationType }), nil
}

func (s donationStore) FindByEmail(_ context.Context, email string) ([]db.Donation, error) {
	return s.filter(func(d db.Donation) bool { return d.Email != nil && *d.Email == email }), nil
}

func (s donationStore) SumAmountBetween(_ context.Context, from, to *time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, donation := range s.filter(func(d db.Donation) bool { return inRange(d.CreatedAt, from, to) }) {
		total = total.Add(donation.Amount)
	}
	return total, nil
}

func (s donationStore) CountByTypeBetween(_ context.Context, donationType db.DonationType, from, to *time.Time) (int64, error) {
	found := s.filter(func(d db.Donation) bool {
		return d.Type == donationType && inRange(d.CreatedAt, from, to)
	})
	return int64(len(found)), nil
}

func (s donationStore) FindRecentByEmail(_ context.Context, email string, limit int) ([]db.Donation, error) {
	donations := s.filter(func(d db.Donation) bool { return d.Email != nil && *d.Email == email })
	sort.Slice(donations, func(i, j int) bool {
		if donations[i].CreatedAt.Equal(donations[j].CreatedAt) {
			return donations[i].ID > donations[j].ID
		}
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
	if limit > 0 && len(donations) > limit {
		donations = donations[:limit]
	}
	return donations, nil
}

func (s donationStore) filter(keep func(db.Donation) bool) []db.Donation {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]db.Donation, 0, len(s.m.donations))
	for _, donation := range s.m.donations {
		if keep(donation) {
			out = append(out, donation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type contentStore struct{ m *Memory }

func (s contentStore) Create(_ context.Context, content *db.Content) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	content.ID = s.m.assignID()
	stamp(&content.CreatedAt, &content.UpdatedAt)
	s.m.contents[content.ID] = cloneContent(*content)
	return nil
}

func (s contentStore) Save(_ context.Context, content *db.Content) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.FailWith != nil {
		return s.m.FailWith
	}
	if content.ID == 0 {
		content.ID = s.m.assignID()
	}
	stamp(&content.CreatedAt, &content.UpdatedAt)
	s.m.contents[content.ID] = cloneContent(*content)
	return nil
}

func (s contentStore) FindByID(_ context.Context, id uint) (*db.Content, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	content, ok := s.m.contents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	content = cloneContent(content)
	return &content, nil
}

func (s contentStore) FindAll(_ context.Context) ([]db.Content, error) {
	return s.filter(func(db.Content) bool { return true }), nil
}

func (s contentStore) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.contents, id)
	return nil
}

func (s contentStore) FindPublished(_ context.Context) ([]db.Content, error) {
	return s.filter(func(c db.Content) bool { return c.Published }), nil
}

func (s contentStore) FindBySection(_ context.Context, section string) ([]db.Content, error) {
	return s.filter(func(c db.Content) bool { return c.Section == section }), nil
}

func (s contentStore) FindBySectionAndPublished(_ context.Context, section string, published bool) ([]db.Content, error) {
	return s.filter(func(c db.Content) bool { return c.Section == section && c.Published == published }), nil
}

func (s contentStore) FindLatestPublishedBySection(_ context.Context, section string) (*db.Content, error) {
	items := s.filter(func(c db.Content) bool { return c.Section == section && c.Published })
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	latest := items[0]
	for _, item := range items[1:] {
		if item.CreatedAt.After(latest.CreatedAt) ||
			(item.CreatedAt.Equal(latest.CreatedAt) && item.ID > latest.ID) {
			latest = item
		}
	}
	return &latest, nil
}

func (s contentStore) FindBySectionsAndPublished(_ context.Context, sections []string, published bool) ([]db.Content, error) {
	wanted := make(map[string]struct{}, len(sections))
	for _, section := range sections {
		wanted[section] = struct{}{}
	}
	return s.filter(func(c db.Content) bool {
		_, ok := wanted[c.Section]
		return ok && c.Published == published
	}), nil
}

func (s contentStore) filter(keep func(db.Content) bool) []db.Content {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]db.Content, 0, len(s.m.contents))
	for _, content := range s.m.contents {
		if keep(content) {
			out = append(out, cloneContent(content))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneContent(c db.Content) db.Content {
	if c.ImageData != nil {
		c.ImageData = append([]byte(nil), c.ImageData...)
	}
	return c
}
