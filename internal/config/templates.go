package config

import (
	"fmt"
	"os"
)

// Template returns the commented starter receiptkit.toml.
func Template() string {
	return template
}

// WriteTemplate writes the starter config to path, refusing to replace an
// existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const template = `# receipt file used when decode/attrs get no argument
receipt_path = ""

# fail on the first bad attribute instead of skipping it
strict = false
skip_unknown = false

max_receipt_bytes = 4194304

# json | yaml | text
output_format = "text"
log_level = "info"

[server]
addr = ":9300"
cors_origins = ["http://localhost:3000"]
metrics = true
`
