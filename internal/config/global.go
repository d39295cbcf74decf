// SPDX-License-Identifier: MPL-2.0

package config

var (
	// configDirOverride allows tests and the --config flag to override the
	// config directory. os.UserHomeDir() doesn't reliably respect the HOME
	// environment variable on all platforms.
	configDirOverride string

	// configFileOverride is an explicit config file path (--config flag).
	configFileOverride string
)

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFileOverride = ""
}

// SetConfigDirOverride sets a custom config directory path. Primarily for
// tests, bypassing os.UserHomeDir().
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFilePathOverride sets an explicit config file path, used by the
// --config flag. The file must exist when Load runs.
func SetConfigFilePathOverride(path string) {
	configFileOverride = path
}
