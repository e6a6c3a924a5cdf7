package app

import (
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/envutil"
)

// LockMode selects the serialization mechanism for the reconcile
// decide-and-write phase. "postgres" (default) uses advisory xact locks
// inside the request transaction; "redis" uses the application-level keyed
// lock and requires REDIS_ADDR.
type Config struct {
	Port     string
	LockMode string
}

func LoadConfig() Config {
	return Config{
		Port:     envutil.Str("PORT", "8080"),
		LockMode: envutil.Str("LOCK_MODE", "postgres"),
	}
}
