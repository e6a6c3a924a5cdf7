package repos

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Pseudo-CS/bitespeed-assign/internal/domain"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/dbctx"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

// ContactRepo is the storage contract consumed by the reconciliation engine.
// Every list result is ordered by created_at ascending (id as tiebreak) and
// excludes soft-deleted rows.
type ContactRepo interface {
	FindByEmailOrPhone(dbc dbctx.Context, email, phone *string) ([]*domain.Contact, error)
	FindCluster(dbc dbctx.Context, primaryID int64) ([]*domain.Contact, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Contact, error)
	Create(dbc dbctx.Context, contact *domain.Contact) error
	ConvertToSecondary(dbc dbctx.Context, contactID, newPrimaryID int64) error
	RepointSecondaries(dbc dbctx.Context, oldPrimaryID, newPrimaryID int64) error

	// AcquireReconcileLocks serializes concurrent reconciliations that touch
	// overlapping email/phone keys. Locks are taken in sorted key order and
	// held until the surrounding transaction ends.
	AcquireReconcileLocks(dbc dbctx.Context, keys []string) error
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	return &contactRepo{db: db, log: baseLog.With("repo", "ContactRepo")}
}

func (r *contactRepo) handle(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *contactRepo) FindByEmailOrPhone(dbc dbctx.Context, email, phone *string) ([]*domain.Contact, error) {
	var results []*domain.Contact
	if email == nil && phone == nil {
		return results, nil
	}

	q := r.handle(dbc)
	switch {
	case email != nil && phone != nil:
		q = q.Where("email = ? OR phone_number = ?", *email, *phone)
	case email != nil:
		q = q.Where("email = ?", *email)
	default:
		q = q.Where("phone_number = ?", *phone)
	}

	if err := q.Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, classifyStorageErr(err)
	}
	return results, nil
}

func (r *contactRepo) FindCluster(dbc dbctx.Context, primaryID int64) ([]*domain.Contact, error) {
	var results []*domain.Contact
	if err := r.handle(dbc).
		Where("id = ? OR linked_id = ?", primaryID, primaryID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, classifyStorageErr(err)
	}
	return results, nil
}

func (r *contactRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*domain.Contact, error) {
	var results []*domain.Contact
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, classifyStorageErr(err)
	}
	return results, nil
}

func (r *contactRepo) Create(dbc dbctx.Context, contact *domain.Contact) error {
	if contact == nil {
		return nil
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	if err := r.handle(dbc).Create(contact).Error; err != nil {
		return classifyStorageErr(err)
	}
	return nil
}

func (r *contactRepo) ConvertToSecondary(dbc dbctx.Context, contactID, newPrimaryID int64) error {
	err := r.handle(dbc).
		Model(&domain.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]any{
			"link_precedence": domain.LinkPrecedenceSecondary,
			"linked_id":       newPrimaryID,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return classifyStorageErr(err)
	}
	return nil
}

func (r *contactRepo) RepointSecondaries(dbc dbctx.Context, oldPrimaryID, newPrimaryID int64) error {
	err := r.handle(dbc).
		Model(&domain.Contact{}).
		Where("linked_id = ?", oldPrimaryID).
		Updates(map[string]any{
			"linked_id":  newPrimaryID,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return classifyStorageErr(err)
	}
	return nil
}

func (r *contactRepo) AcquireReconcileLocks(dbc dbctx.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	// Advisory locks are a Postgres feature; the sqlite test store is
	// single-writer already.
	if t.Dialector.Name() != "postgres" {
		return nil
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, key := range sorted {
		if err := t.WithContext(dbc.Ctx).
			Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
			return classifyStorageErr(err)
		}
	}
	return nil
}
