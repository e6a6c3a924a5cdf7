package app

import (
	"gorm.io/gorm"

	"github.com/Pseudo-CS/bitespeed-assign/internal/data/repos"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

type Repos struct {
	Contact repos.ContactRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Contact: repos.NewContactRepo(db, log),
	}
}
