package models

import "time"

// Config represents the application configuration
type Config struct {
	Files  FilesConfig
	Ledger LedgerConfig
	Debug  bool
}

// FilesConfig holds the dataset and report locations for a run
type FilesConfig struct {
	UsersFile     string
	CompaniesFile string
	OutputFile    string
}

// LedgerConfig holds the audit ledger connection settings.
// An empty Path disables the ledger.
type LedgerConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Enabled reports whether a ledger file is configured
func (c LedgerConfig) Enabled() bool {
	return c.Path != ""
}
