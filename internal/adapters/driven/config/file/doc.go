// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings in ~/.docqa/config.toml
//   - PromptStore: editable prompt templates in ~/.docqa/prompts
package file
