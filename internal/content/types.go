package content

import (
	"encoding/json"
	"time"
)

// Annotations carries formatting flags for one rich text run.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// RichText is one canonical formatted run. Normalization preserves run order
// and boundaries because annotation edges are meaningful to the renderer.
type RichText struct {
	PlainText   string      `json:"plain_text"`
	Href        *string     `json:"href,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// Block type identifiers, matching the upstream type strings so cache bundles
// stay stable across syncs.
const (
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeBulletedListItem = "bulleted_list_item"
	TypeNumberedListItem = "numbered_list_item"
	TypeToDo             = "to_do"
	TypeToggle           = "toggle"
	TypeQuote            = "quote"
	TypeCallout          = "callout"
	TypeCode             = "code"
	TypeImage            = "image"
	TypeVideo            = "video"
	TypeAudio            = "audio"
	TypeFile             = "file"
	TypePDF              = "pdf"
	TypeBookmark         = "bookmark"
	TypeEmbed            = "embed"
	TypeEquation         = "equation"
	TypeDivider          = "divider"
	TypeColumnList       = "column_list"
	TypeColumn           = "column"
	TypeChildPage        = "child_page"
	TypeChildDatabase    = "child_database"
	TypeLinkToPage       = "link_to_page"
	TypeTable            = "table"
	TypeTableRow         = "table_row"
	TypeTableOfContents  = "table_of_contents"
	TypeBreadcrumb       = "breadcrumb"
)

// TextPayload is the shared shape of paragraph-like blocks.
type TextPayload struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

// ToDoPayload adds the checked state to a text run list.
type ToDoPayload struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// CalloutPayload carries the callout body and its icon.
type CalloutPayload struct {
	RichText []RichText `json:"rich_text"`
	Icon     string     `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

// CodePayload is used both for literal code and embedded widget declarations.
type CodePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
}

// MediaPayload is the resolved shape of image/video/audio/file/pdf blocks.
// Width and Height are populated for images only, and only when a sizer
// capability is configured.
type MediaPayload struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
	Width   int        `json:"width,omitempty"`
	Height  int        `json:"height,omitempty"`
}

// BookmarkPayload links out to an external resource.
type BookmarkPayload struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// EmbedPayload frames an external resource inline.
type EmbedPayload struct {
	URL string `json:"url"`
}

// EquationPayload carries a raw expression string.
type EquationPayload struct {
	Expression string `json:"expression"`
}

// ChildPagePayload names a nested page.
type ChildPagePayload struct {
	Title string `json:"title"`
}

// ChildDatabasePayload names an inline database. DatabaseID is resolved by the
// sync orchestrator, not by normalization, since resolution needs API calls.
type ChildDatabasePayload struct {
	Title      string `json:"title"`
	DatabaseID string `json:"database_id,omitempty"`
}

// LinkToPagePayload points at another page or database.
type LinkToPagePayload struct {
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

// TablePayload describes table geometry.
type TablePayload struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// TableRowPayload is one row of cells, each cell a run list.
type TableRowPayload struct {
	Cells [][]RichText `json:"cells"`
}

// Block is one canonical node of a page's flat ordered block list. Exactly one
// variant payload is set for recognized types; unsupported types keep their
// raw type string and payload so the renderer can show an explicit placeholder
// instead of silently losing content.
type Block struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph        *TextPayload          `json:"paragraph,omitempty"`
	Heading1         *TextPayload          `json:"heading_1,omitempty"`
	Heading2         *TextPayload          `json:"heading_2,omitempty"`
	Heading3         *TextPayload          `json:"heading_3,omitempty"`
	BulletedListItem *TextPayload          `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextPayload          `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoPayload          `json:"to_do,omitempty"`
	Toggle           *TextPayload          `json:"toggle,omitempty"`
	Quote            *TextPayload          `json:"quote,omitempty"`
	Callout          *CalloutPayload       `json:"callout,omitempty"`
	Code             *CodePayload          `json:"code,omitempty"`
	Image            *MediaPayload         `json:"image,omitempty"`
	Video            *MediaPayload         `json:"video,omitempty"`
	Audio            *MediaPayload         `json:"audio,omitempty"`
	File             *MediaPayload         `json:"file,omitempty"`
	PDF              *MediaPayload         `json:"pdf,omitempty"`
	Bookmark         *BookmarkPayload      `json:"bookmark,omitempty"`
	Embed            *EmbedPayload         `json:"embed,omitempty"`
	Equation         *EquationPayload      `json:"equation,omitempty"`
	ChildPage        *ChildPagePayload     `json:"child_page,omitempty"`
	ChildDatabase    *ChildDatabasePayload `json:"child_database,omitempty"`
	LinkToPage       *LinkToPagePayload    `json:"link_to_page,omitempty"`
	Table            *TablePayload         `json:"table,omitempty"`
	TableRow         *TableRowPayload      `json:"table_row,omitempty"`

	// Raw keeps the untouched payload of unsupported block types.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// IsDivider reports whether the block is a section boundary.
func (b Block) IsDivider() bool {
	return b.Type == TypeDivider
}

// ChildPageRef is a currently-existing, non-archived child document.
type ChildPageRef struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// LearningDay is one day of a hub's learning path.
type LearningDay struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	DayOffset int    `json:"day_offset"`
}

// LearningPath is the ordered day sequence a cohort overlay projects dates onto.
type LearningPath struct {
	Days []LearningDay `json:"days"`
}

// PageMeta is page-level metadata. Slug is unique across the whole content
// namespace: pages, hubs, sprints, workshops and blog posts share one slug
// space for routing.
type PageMeta struct {
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	NotionID     string         `json:"notion_id"`
	FullWidth    bool           `json:"full_width,omitempty"`
	Visibility   string         `json:"visibility,omitempty"`
	Excerpt      string         `json:"excerpt,omitempty"`
	Icon         string         `json:"icon,omitempty"`
	Cover        string         `json:"cover,omitempty"`
	LastEdited   time.Time      `json:"last_edited"`
	ChildPages   []ChildPageRef `json:"child_pages,omitempty"`
	LearningPath *LearningPath  `json:"learning_path,omitempty"`
}

// PageBundle is the complete cached snapshot of one page, committed atomically
// per slug on each successful sync and read-only to consumers. Blocks is a
// flat ordered list; nesting is conveyed by HasChildren plus fetch order,
// never by cyclic references.
type PageBundle struct {
	Meta     PageMeta  `json:"meta"`
	Blocks   []Block   `json:"blocks"`
	SyncedAt time.Time `json:"synced_at"`
}

// DbItem is one denormalized row of a database view.
type DbItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug,omitempty"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Visibility string    `json:"visibility,omitempty"`
	LastEdited time.Time `json:"last_edited"`
}

// View values recorded on cached database bundles. Inline views come from
// child_database blocks, linked views from link_to_page references.
const (
	DbViewInline = "inline"
	DbViewLinked = "linked"
)

// DbBundle is one paginated view of a linked database. HasMore and NextCursor
// reflect the upstream pagination token at sync time.
type DbBundle struct {
	Items      []DbItem `json:"items"`
	View       string   `json:"view,omitempty"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor,omitempty"`
	Name       string   `json:"name,omitempty"`
}

// Summary is a denormalized index projection of one page.
type Summary struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	Visibility string    `json:"visibility,omitempty"`
	LastEdited time.Time `json:"last_edited"`
}

// Index is a denormalized summary list derived from a set of bundles. Every
// item slug must correspond to an existing PageBundle; indices are rebuilt by
// the same sync pass that writes the underlying bundles, never independently.
type Index struct {
	Items    []Summary `json:"items"`
	SyncedAt time.Time `json:"synced_at"`
}

// Summarize projects page metadata into its index entry.
func Summarize(meta PageMeta) Summary {
	return Summary{
		Slug:       meta.Slug,
		Title:      meta.Title,
		Excerpt:    meta.Excerpt,
		Icon:       meta.Icon,
		Visibility: meta.Visibility,
		LastEdited: meta.LastEdited,
	}
}
