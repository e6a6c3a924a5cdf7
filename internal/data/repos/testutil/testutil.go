package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Pseudo-CS/bitespeed-assign/internal/domain"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logg, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return logg
}

// DB opens a fresh in-memory sqlite database with the contacts schema.
// Each call gets its own database, so tests stay isolated without
// transaction rollback plumbing.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Contact{}); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// SeedContact inserts a contact with an explicit created_at so tests control
// cluster age ordering.
func SeedContact(tb testing.TB, ctx context.Context, db *gorm.DB, email, phone string, precedence domain.LinkPrecedence, linkedID *int64, createdAt time.Time) *domain.Contact {
	tb.Helper()
	c := &domain.Contact{
		Email:          PtrStr(email),
		PhoneNumber:    PtrStr(phone),
		LinkedID:       linkedID,
		LinkPrecedence: precedence,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contact: %v", err)
	}
	return c
}

// PtrStr returns nil for the empty string, matching nullable contact fields.
func PtrStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func PtrInt64(v int64) *int64 { return &v }
