package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Store reads and writes profile documents in a single directory. Files are
// named <lowercase nick>.md.
type Store struct {
	dir string
	log *zerolog.Logger
}

// NewStore creates the profile directory if needed and returns a Store.
func NewStore(dir string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads the profile for nick. A missing or unreadable file yields an
// empty profile; registration never fails on profile problems.
func (s *Store) Load(nick string) Profile {
	data, err := os.ReadFile(s.path(nick))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("nick", nick).Msg("failed to read profile")
		}
		return Profile{}
	}
	return Parse(data)
}

// Save writes the profile back as markdown in the same shape Parse reads.
func (s *Store) Save(nick string, p Profile) error {
	name := p.Name
	if name == "" {
		name = nick
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	if p.Description != "" {
		fmt.Fprintf(&sb, "## Description\n%s\n\n", p.Description)
	}
	writeListSection(&sb, "Abilities", p.Abilities)
	writeListSection(&sb, "Interests", p.Interests)
	writeListSection(&sb, "Can Manage", p.CanManage)
	if p.Personality != "" {
		fmt.Fprintf(&sb, "## Personality\n%s\n", p.Personality)
	}

	if err := os.WriteFile(s.path(nick), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write profile for %s: %w", nick, err)
	}
	return nil
}

func (s *Store) path(nick string) string {
	return filepath.Join(s.dir, strings.ToLower(nick)+".md")
}

func writeListSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteByte('\n')
}
