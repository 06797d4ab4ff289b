// Package file holds the filesystem-backed driven adapters: ConfigStore
// keeps configuration in a hand-editable TOML file, PromptStore overlays
// prompt template overrides from disk onto compiled-in defaults.
package file
