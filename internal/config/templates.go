package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths left empty fall back to files inside the config directory.
const configTemplate = `# Trade Journal Configuration

[storage]
# SQLite database file (defaults to journal.db in this directory)
# path = "/path/to/journal.db"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to stderr
console = false
# Log to a rotating file
file = true
# max_size in MB, max_age in days
max_size = 100
max_backups = 7
max_age = 30

[analytics]
# Date filter for "trade list", "trade export" and GET /api/v1/trades when
# none is given: "Last 7 Days", "Last 30 Days", "Last 3 Months",
# "Last 6 Months", "Last Year", "All Time" (or 7d, 30d, 3m, 6m, 1y, all)
default_date_filter = "All Time"
# Number of symbols shown in rankings
top_symbols = 10
# Workers used for grouping large journals (0 = number of CPUs)
workers = 0
# Journals at least this large are grouped in parallel
parallel_threshold = 1000
# Trades per page when listing
page_size = 50

[server]
# Address for "journal serve"
addr = "127.0.0.1:8080"
# Requests per second and burst shared by all clients
rate_limit = 20.0
burst = 40
read_timeout = "10s"
write_timeout = "30s"

[ui]
# Enable colored output
color_enabled = true
# Date format (Go layout)
date_format = "02-Jan-2006 15:04"
# Currency shown next to amounts
currency = "USD"

[security]
# Block add, delete, import and seed
read_only = false
# Append every journal mutation to audit.log
audit = true
# Audit directory (defaults to audit/ in this directory)
# audit_dir = "/path/to/audit"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
