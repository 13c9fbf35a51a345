package sections_test

import (
	"reflect"
	"testing"

	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/sections"
)

func paragraph(id, text string) content.Block {
	return content.Block{
		ID:   id,
		Type: content.TypeParagraph,
		Paragraph: &content.TextPayload{
			RichText: []content.RichText{{PlainText: text}},
		},
	}
}

func heading(id, text string) content.Block {
	return content.Block{
		ID:   id,
		Type: content.TypeHeading1,
		Heading1: &content.TextPayload{
			RichText: []content.RichText{{PlainText: text}},
		},
	}
}

func divider() content.Block {
	return content.Block{ID: "div", Type: content.TypeDivider}
}

func blockIDs(s sections.Section) []string {
	ids := make([]string, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestSplit_DividerBoundaries(t *testing.T) {
	blocks := []content.Block{
		paragraph("p1", "intro"),
		divider(),
		heading("h1", "Day one"),
		paragraph("p2", "body"),
	}

	got := sections.Split(blocks)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if !reflect.DeepEqual(blockIDs(got[0]), []string{"p1"}) {
		t.Fatalf("unexpected first section: %v", blockIDs(got[0]))
	}
	if !reflect.DeepEqual(blockIDs(got[1]), []string{"h1", "p2"}) {
		t.Fatalf("unexpected second section: %v", blockIDs(got[1]))
	}
	if got[0].ID != "p1" || got[1].ID != "h1" {
		t.Fatalf("unexpected section ids: %q %q", got[0].ID, got[1].ID)
	}
}

func TestSplit_DiscardsDividers(t *testing.T) {
	blocks := []content.Block{paragraph("p1", "a"), divider(), paragraph("p2", "b")}
	for _, section := range sections.Split(blocks) {
		for _, b := range section.Blocks {
			if b.IsDivider() {
				t.Fatalf("divider leaked into section %q", section.ID)
			}
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	got := sections.Split(nil)
	if len(got) != 1 {
		t.Fatalf("expected exactly one section, got %d", len(got))
	}
	if len(got[0].Blocks) != 0 {
		t.Fatalf("expected empty section, got %d blocks", len(got[0].Blocks))
	}
	if got[0].ID != "section-0" {
		t.Fatalf("expected synthesized id, got %q", got[0].ID)
	}
}

func TestSplit_AllDividers(t *testing.T) {
	got := sections.Split([]content.Block{divider(), divider(), divider()})
	if len(got) != 1 {
		t.Fatalf("expected exactly one section, got %d", len(got))
	}
	if len(got[0].Blocks) != 0 {
		t.Fatalf("expected empty section, got %d blocks", len(got[0].Blocks))
	}
}

func TestSplit_ConsecutiveDividersKeepEmptySection(t *testing.T) {
	blocks := []content.Block{
		paragraph("p1", "a"),
		divider(),
		divider(),
		paragraph("p2", "b"),
	}
	got := sections.Split(blocks)
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(got))
	}
	if got[1].ID != "section-1" || len(got[1].Blocks) != 0 {
		t.Fatalf("expected empty middle section, got %+v", got[1])
	}
}

func TestSplit_ConservesBlocks(t *testing.T) {
	blocks := []content.Block{
		paragraph("p1", "a"),
		paragraph("p2", "b"),
		divider(),
		heading("h1", "c"),
		divider(),
		paragraph("p3", "d"),
	}
	got := sections.Split(blocks)

	var flattened []string
	for _, section := range got {
		flattened = append(flattened, blockIDs(section)...)
	}
	want := []string{"p1", "p2", "h1", "p3"}
	if !reflect.DeepEqual(flattened, want) {
		t.Fatalf("expected %v, got %v", want, flattened)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	blocks := []content.Block{
		paragraph("p1", "a"),
		divider(),
		paragraph("p2", "b"),
	}
	first := sections.Split(blocks)
	second := sections.Split(blocks)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical sections on repeated split")
	}
}
