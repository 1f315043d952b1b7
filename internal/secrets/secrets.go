// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads Crossref credentials from a directory of plain-text
// files. Each file in the directory represents one secret: the filename is
// the key name and the file contents (trimmed) are the value.
//
// Supported key files: crossref-plus-token, crossref-mailto.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key filenames recognized inside the secrets directory.
const (
	KeyPlusToken = "crossref-plus-token"
	KeyMailto    = "crossref-mailto"
)

// Credentials holds the secret values doi-audit knows how to use.
type Credentials struct {
	// PlusToken is a Crossref Metadata Plus token.
	PlusToken string

	// Mailto is the polite-pool contact, e.g. "mailto:user@example.org".
	Mailto string
}

// IsZero reports whether no credentials were found.
func (c Credentials) IsZero() bool {
	return c.PlusToken == "" && c.Mailto == ""
}

// Load reads the recognized key files from dir. A missing directory or
// missing files are not errors; Load returns zero Credentials. Unreadable
// files produce a warning on stderr but do not abort.
func Load(dir string) (Credentials, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	values := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			values[name] = value
		}
	}

	return Credentials{
		PlusToken: values[KeyPlusToken],
		Mailto:    values[KeyMailto],
	}, nil
}
