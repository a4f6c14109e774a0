// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text
// files. Each file holds one secret: the filename is the key name and the
// trimmed contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyOpenAI is the secret file holding the API key for the AI cleanup
// endpoint.
const KeyOpenAI = "openai-api-key"

// Store holds the secrets loaded for one invocation.
type Store map[string]string

// OpenAIKey returns the cleanup API key, or "" when none was loaded.
func (s Store) OpenAIKey() string {
	return s[KeyOpenAI]
}

// Names returns the loaded key names, for startup diagnostics.
func (s Store) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Load reads every file in dir into a Store. A missing directory is not an
// error; Load returns an empty Store. Unreadable files produce a warning on
// stderr but do not abort, so one bad key file cannot block a run that does
// not need it.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}

	return store, nil
}
