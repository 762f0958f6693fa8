// Package skills loads and parses per-agent profile documents. A profile is
// a small markdown file describing what an agent can do; it is read once
// when the agent registers.
package skills

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Profile is the parsed contents of an agent's profile document.
type Profile struct {
	Name        string
	Description string
	Personality string
	Abilities   []string
	Interests   []string
	CanManage   []string
}

// Section headings recognized in a profile document (case-insensitive).
const (
	sectionDescription = "description"
	sectionPersonality = "personality"
	sectionAbilities   = "abilities"
	sectionInterests   = "interests"
	sectionCanManage   = "can manage"
)

// Parse extracts a Profile from markdown source. The top-level heading is
// the profile name; second-level headings open sections whose list items or
// paragraphs fill the corresponding fields. Unrecognized sections are
// ignored.
func Parse(src []byte) Profile {
	var p Profile

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	section := ""
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			switch n.Level {
			case 1:
				p.Name = nodeText(n, src)
			case 2:
				section = strings.ToLower(nodeText(n, src))
			}
		case *ast.List:
			items := listItems(n, src)
			switch section {
			case sectionAbilities:
				p.Abilities = append(p.Abilities, items...)
			case sectionInterests:
				p.Interests = append(p.Interests, items...)
			case sectionCanManage:
				p.CanManage = append(p.CanManage, items...)
			}
		case *ast.Paragraph:
			switch section {
			case sectionDescription:
				p.Description = joinText(p.Description, nodeText(n, src))
			case sectionPersonality:
				p.Personality = joinText(p.Personality, nodeText(n, src))
			}
		}
	}

	return p
}

// MatchesInterest reports whether topic overlaps this profile's interests
// or abilities. Matching is case-insensitive substring containment in
// either direction, so "rust" matches "Rust tooling" and vice versa.
func (p Profile) MatchesInterest(topic string) bool {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return false
	}
	for _, list := range [][]string{p.Interests, p.Abilities} {
		for _, entry := range list {
			entry = strings.ToLower(entry)
			if strings.Contains(entry, topic) || strings.Contains(topic, entry) {
				return true
			}
		}
	}
	return false
}

func listItems(list *ast.List, src []byte) []string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if s := nodeText(item, src); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// nodeText flattens the inline text beneath a node.
func nodeText(node ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func joinText(existing, more string) string {
	if existing == "" {
		return more
	}
	if more == "" {
		return existing
	}
	return existing + " " + more
}
