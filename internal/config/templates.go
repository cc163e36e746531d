package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Kabuka Watcher Configuration

[database]
# SQLite file holding instruments and alerts (default: <config dir>/kabuka.db)
path = ""

[crawl]
# CSS selector of the element carrying the current price
selector = ".kabuka"
# Currency glyph stripped from the price text
currency_token = "円"
# Digit grouping separator stripped from the price text
group_separator = ","
# Deadline for a single crawl (e.g., "15s", "1m")
timeout = "15s"
# User-Agent sent with page requests
user_agent = "kabuka-watcher/0.1"
# Reject quote pages that are not served over https
require_https = true
# Upper bound on a fetched page body in bytes (0 = unlimited)
max_body_bytes = 8388608
# Instruments crawled at once by "crawl --all"
concurrency = 4

[server]
# Listen address for "kabuka serve"
addr = "127.0.0.1:3000"
read_timeout = "10s"
write_timeout = "30s"

[log]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
# Log file path (default: <config dir>/logs/kabuka.log)
file_path = ""
max_size = 50
max_backups = 5
max_age = 30
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
