// Package sections splits a page's top-level block list into renderable
// sections using divider blocks as boundaries.
package sections

import (
	"fmt"

	"github.com/webizupfr/notion-mirror/internal/content"
)

// Section is one contiguous run of non-divider blocks.
type Section struct {
	ID     string          `json:"id"`
	Blocks []content.Block `json:"blocks"`
}

// Split partitions blocks at divider boundaries. Divider blocks are consumed
// by the split and never appear in the output. A section's ID is the ID of
// its first block; an empty section falls back to a positional ID so anchors
// stay stable across renders. The input always yields at least one section,
// so a page with no blocks (or only dividers) produces a single empty one.
func Split(blocks []content.Block) []Section {
	sections := []Section{{}}
	total := 0
	for _, block := range blocks {
		if block.IsDivider() {
			sections = append(sections, Section{})
			continue
		}
		last := len(sections) - 1
		sections[last].Blocks = append(sections[last].Blocks, block)
		total++
	}
	// No content at all collapses to a single empty section, never zero.
	if total == 0 {
		sections = sections[:1]
	}
	for i := range sections {
		sections[i].ID = sectionID(sections[i], i)
	}
	return sections
}

func sectionID(s Section, index int) string {
	if len(s.Blocks) > 0 && s.Blocks[0].ID != "" {
		return s.Blocks[0].ID
	}
	return fmt.Sprintf("section-%d", index)
}
