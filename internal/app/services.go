package app

import (
	"fmt"

	"gorm.io/gorm"

	redisclient "github.com/Pseudo-CS/bitespeed-assign/internal/clients/redis"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
	"github.com/Pseudo-CS/bitespeed-assign/internal/services"
)

type Services struct {
	Identity services.IdentityService

	// reconcileLock is non-nil only in redis lock mode; closed on shutdown.
	reconcileLock redisclient.KeyedLock
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	var locker services.ReconcileLocker
	var keyedLock redisclient.KeyedLock
	switch cfg.LockMode {
	case "redis":
		kl, err := redisclient.NewKeyedLock(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis keyed lock: %w", err)
		}
		keyedLock = kl
		locker = kl
	case "postgres", "":
		// Advisory xact locks taken by the contact repo inside the request
		// transaction; nothing to wire.
	default:
		return Services{}, fmt.Errorf("unknown LOCK_MODE %q", cfg.LockMode)
	}

	return Services{
		Identity:      services.NewIdentityService(db, log, reposet.Contact, locker),
		reconcileLock: keyedLock,
	}, nil
}

func (s Services) Close() {
	if s.reconcileLock != nil {
		_ = s.reconcileLock.Close()
	}
}
