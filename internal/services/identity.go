package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/Pseudo-CS/bitespeed-assign/internal/data/repos"
	"github.com/Pseudo-CS/bitespeed-assign/internal/domain"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/apperr"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/dbctx"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

// IdentityView is the externally visible shape of one identity cluster.
// Emails and PhoneNumbers list the primary's own values first, then unseen
// secondary values in creation order.
type IdentityView struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// IdentityService reconciles incoming (email, phone) observations against
// the linked contact set: it creates a new identity, attaches a secondary to
// an existing one, or merges previously independent identities when the
// observation connects them.
type IdentityService interface {
	Identify(ctx context.Context, email, phone string) (*IdentityView, error)
}

// ReconcileLocker is an application-level mutual-exclusion lock keyed by the
// request's email/phone. When configured it replaces the Postgres advisory
// locks as the serialization mechanism for the decide-and-write phase.
type ReconcileLocker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}

type identityService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo repos.ContactRepo
	locker      ReconcileLocker
}

func NewIdentityService(db *gorm.DB, log *logger.Logger, contactRepo repos.ContactRepo, locker ReconcileLocker) IdentityService {
	return &identityService{
		db:          db,
		log:         log.With("service", "IdentityService"),
		contactRepo: contactRepo,
		locker:      locker,
	}
}

func (s *identityService) Identify(ctx context.Context, email, phone string) (*IdentityView, error) {
	if email == "" && phone == "" {
		return nil, fmt.Errorf("%w: at least one of email or phone is required", apperr.ErrInvalidRequest)
	}

	keys := lockKeys(email, phone)
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("%w: acquire reconcile lock: %v", apperr.ErrStorageUnavailable, err)
		}
		defer unlock()
	}

	var view *IdentityView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if s.locker == nil {
			if err := s.contactRepo.AcquireReconcileLocks(dbc, keys); err != nil {
				return err
			}
		}
		v, err := s.reconcile(dbc, email, phone)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		s.log.Warn("Identify failed", "error", err)
		return nil, err
	}
	return view, nil
}

func (s *identityService) reconcile(dbc dbctx.Context, email, phone string) (*IdentityView, error) {
	matches, err := s.contactRepo.FindByEmailOrPhone(dbc, optional(email), optional(phone))
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		created, err := s.createContact(dbc, email, phone, domain.LinkPrecedencePrimary, nil)
		if err != nil {
			return nil, err
		}
		// Fresh identity: the cluster is just this contact, no re-fetch needed.
		return buildIdentityView([]*domain.Contact{created})
	}

	primaries, err := s.resolvePrimaries(dbc, matches)
	if err != nil {
		return nil, err
	}

	if len(primaries) == 1 {
		return s.attach(dbc, primaries[0], email, phone)
	}
	return s.merge(dbc, primaries, email, phone)
}

// resolvePrimaries maps the matched contacts to their distinct cluster
// primaries, oldest first. Link depth is at most one, so a single
// dereference per secondary suffices.
func (s *identityService) resolvePrimaries(dbc dbctx.Context, matches []*domain.Contact) ([]*domain.Contact, error) {
	byID := make(map[int64]*domain.Contact)
	var order []int64
	var missing []int64

	for _, m := range matches {
		pid := m.ID
		if !m.IsPrimary() {
			if m.LinkedID == nil {
				return nil, fmt.Errorf("%w: secondary contact %d has no linked_id", apperr.ErrInvariantViolation, m.ID)
			}
			pid = *m.LinkedID
		}
		if _, ok := byID[pid]; ok {
			continue
		}
		order = append(order, pid)
		if m.IsPrimary() {
			byID[pid] = m
		} else {
			byID[pid] = nil
			missing = append(missing, pid)
		}
	}

	if len(missing) > 0 {
		rows, err := s.contactRepo.GetByIDs(dbc, missing)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if !row.IsPrimary() {
				return nil, fmt.Errorf("%w: linked_id target %d is not a primary contact", apperr.ErrInvariantViolation, row.ID)
			}
			byID[row.ID] = row
		}
	}

	primaries := make([]*domain.Contact, 0, len(order))
	for _, pid := range order {
		p := byID[pid]
		if p == nil {
			return nil, fmt.Errorf("%w: linked_id %d does not resolve to a contact", apperr.ErrInvariantViolation, pid)
		}
		primaries = append(primaries, p)
	}

	sort.SliceStable(primaries, func(i, j int) bool {
		if primaries[i].CreatedAt.Equal(primaries[j].CreatedAt) {
			return primaries[i].ID < primaries[j].ID
		}
		return primaries[i].CreatedAt.Before(primaries[j].CreatedAt)
	})
	return primaries, nil
}

// attach handles the single-primary case. The new-information check compares
// the request against the primary's own fields only, not its secondaries;
// a request matching only a secondary's data still creates one more
// secondary carrying the full payload.
func (s *identityService) attach(dbc dbctx.Context, primary *domain.Contact, email, phone string) (*IdentityView, error) {
	needNew := (email != "" && email != primary.EmailValue()) ||
		(phone != "" && phone != primary.PhoneValue())

	if needNew {
		if _, err := s.createContact(dbc, email, phone, domain.LinkPrecedenceSecondary, &primary.ID); err != nil {
			return nil, err
		}
	}

	cluster, err := s.contactRepo.FindCluster(dbc, primary.ID)
	if err != nil {
		return nil, err
	}
	return buildIdentityView(cluster)
}

// merge collapses several clusters into one under the oldest primary, then
// appends a secondary when the request carries a value the merged cluster
// has never seen.
func (s *identityService) merge(dbc dbctx.Context, primaries []*domain.Contact, email, phone string) (*IdentityView, error) {
	oldest := primaries[0]

	for _, x := range primaries[1:] {
		if err := s.contactRepo.ConvertToSecondary(dbc, x.ID, oldest.ID); err != nil {
			return nil, err
		}
		if err := s.contactRepo.RepointSecondaries(dbc, x.ID, oldest.ID); err != nil {
			return nil, err
		}
	}

	cluster, err := s.contactRepo.FindCluster(dbc, oldest.ID)
	if err != nil {
		return nil, err
	}

	emailSeen := email == ""
	phoneSeen := phone == ""
	for _, c := range cluster {
		if !emailSeen && c.EmailValue() == email {
			emailSeen = true
		}
		if !phoneSeen && c.PhoneValue() == phone {
			phoneSeen = true
		}
	}

	if !emailSeen || !phoneSeen {
		created, err := s.createContact(dbc, email, phone, domain.LinkPrecedenceSecondary, &oldest.ID)
		if err != nil {
			return nil, err
		}
		cluster = append(cluster, created)
	}
	return buildIdentityView(cluster)
}

func (s *identityService) createContact(dbc dbctx.Context, email, phone string, precedence domain.LinkPrecedence, linkedID *int64) (*domain.Contact, error) {
	c := &domain.Contact{
		Email:          optional(email),
		PhoneNumber:    optional(phone),
		LinkedID:       linkedID,
		LinkPrecedence: precedence,
	}
	if err := s.contactRepo.Create(dbc, c); err != nil {
		return nil, err
	}
	return c, nil
}

// buildIdentityView projects a cluster (ascending created_at, primary
// included) into its response shape.
func buildIdentityView(cluster []*domain.Contact) (*IdentityView, error) {
	var primary *domain.Contact
	for _, c := range cluster {
		if c.IsPrimary() {
			if primary != nil {
				return nil, fmt.Errorf("%w: cluster has multiple primaries (%d, %d)", apperr.ErrInvariantViolation, primary.ID, c.ID)
			}
			primary = c
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("%w: cluster has no primary contact", apperr.ErrInvariantViolation)
	}

	view := &IdentityView{
		PrimaryContactID:    primary.ID,
		Emails:              make([]string, 0, len(cluster)),
		PhoneNumbers:        make([]string, 0, len(cluster)),
		SecondaryContactIDs: make([]int64, 0, len(cluster)),
	}

	appendUnique := func(list []string, v string) []string {
		if v == "" {
			return list
		}
		for _, existing := range list {
			if existing == v {
				return list
			}
		}
		return append(list, v)
	}

	view.Emails = appendUnique(view.Emails, primary.EmailValue())
	view.PhoneNumbers = appendUnique(view.PhoneNumbers, primary.PhoneValue())
	for _, c := range cluster {
		if c.IsPrimary() {
			continue
		}
		view.Emails = appendUnique(view.Emails, c.EmailValue())
		view.PhoneNumbers = appendUnique(view.PhoneNumbers, c.PhoneValue())
		view.SecondaryContactIDs = append(view.SecondaryContactIDs, c.ID)
	}
	return view, nil
}

func lockKeys(email, phone string) []string {
	var keys []string
	if email != "" {
		keys = append(keys, "email:"+email)
	}
	if phone != "" {
		keys = append(keys, "phone:"+phone)
	}
	return keys
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
