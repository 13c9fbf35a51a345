package content

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/webizupfr/notion-mirror/internal/notion"
)

// Property names the source databases use for routing and presentation fields.
// Matching is case-insensitive so editors can rename columns without breaking
// the mirror.
const (
	propSlug       = "slug"
	propVisibility = "visibility"
	propExcerpt    = "excerpt"
	propFullWidth  = "full width"
)

// NormalizeRichText converts raw runs into canonical runs without merging or
// reordering them.
func NormalizeRichText(runs []notion.RichText) []RichText {
	if len(runs) == 0 {
		return nil
	}
	out := make([]RichText, len(runs))
	for i, run := range runs {
		out[i] = RichText{
			PlainText: run.PlainText,
			Href:      run.Href,
			Annotations: Annotations{
				Bold:          run.Annotations.Bold,
				Italic:        run.Annotations.Italic,
				Underline:     run.Annotations.Underline,
				Strikethrough: run.Annotations.Strikethrough,
				Code:          run.Annotations.Code,
				Color:         run.Annotations.Color,
			},
		}
	}
	return out
}

// PlainText flattens a run list to its literal text.
func PlainText(runs []RichText) string {
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(run.PlainText)
	}
	return sb.String()
}

// TitleOf extracts the display title from a raw page's title-type property,
// defaulting to the documented "Untitled" fallback when absent.
func TitleOf(page *notion.Page) string {
	if page == nil {
		return UntitledFallback
	}
	for _, prop := range page.Properties {
		if prop.Type != "title" {
			continue
		}
		if title := strings.TrimSpace(rawPlainText(prop.Title)); title != "" {
			return title
		}
	}
	return UntitledFallback
}

// SlugOf resolves a page's routing slug: the explicit slug property wins, the
// normalized title is the fallback.
func SlugOf(page *notion.Page) (string, error) {
	if page == nil {
		return "", ErrSlugRequired
	}
	if explicit := strings.TrimSpace(rawPlainText(propertyRichText(page, propSlug))); explicit != "" {
		normalized, err := NormalizeSlug(explicit)
		if err != nil {
			return "", ErrSlugInvalid
		}
		return normalized, nil
	}
	title := TitleOf(page)
	normalized, err := NormalizeSlug(title)
	if err != nil || normalized == "" {
		return "", ErrSlugInvalid
	}
	return normalized, nil
}

// NormalizePage converts a raw page record into canonical metadata. Child
// pages and the learning path are attached later by the sync orchestrator
// since both require the block tree.
func NormalizePage(page *notion.Page) (PageMeta, error) {
	if page == nil {
		return PageMeta{}, ErrSlugRequired
	}
	if page.Archived {
		return PageMeta{}, ErrPageArchived
	}
	slug, err := SlugOf(page)
	if err != nil {
		return PageMeta{}, err
	}
	meta := PageMeta{
		Title:      TitleOf(page),
		Slug:       slug,
		NotionID:   page.ID,
		LastEdited: page.LastEditedTime,
		Icon:       iconOf(page.Icon),
		Cover:      page.Cover.URL(),
		Visibility: selectValue(page, propVisibility),
		Excerpt:    strings.TrimSpace(rawPlainText(propertyRichText(page, propExcerpt))),
		FullWidth:  checkboxValue(page, propFullWidth),
	}
	return meta, nil
}

// NormalizeDbItem projects a raw page row of a database view into a
// denormalized item.
func NormalizeDbItem(page *notion.Page) DbItem {
	if page == nil {
		return DbItem{}
	}
	item := DbItem{
		ID:         page.ID,
		Title:      TitleOf(page),
		Excerpt:    strings.TrimSpace(rawPlainText(propertyRichText(page, propExcerpt))),
		Icon:       iconOf(page.Icon),
		Visibility: selectValue(page, propVisibility),
		LastEdited: page.LastEditedTime,
	}
	if slug, err := SlugOf(page); err == nil {
		item.Slug = slug
	}
	for _, prop := range page.Properties {
		if prop.Type != "multi_select" {
			continue
		}
		for _, opt := range prop.MultiSelect {
			item.Tags = append(item.Tags, opt.Name)
		}
	}
	return item
}

// NormalizeBlocks converts raw blocks into canonical blocks, dropping archived
// nodes and passing unsupported types through tagged by their raw type string.
func NormalizeBlocks(raw []notion.Block) []Block {
	out := make([]Block, 0, len(raw))
	for _, rb := range raw {
		if rb.Archived {
			continue
		}
		out = append(out, NormalizeBlock(rb))
	}
	return out
}

// NormalizeBlock converts one raw block. Decoding failures degrade the block
// to a tagged passthrough rather than dropping it.
func NormalizeBlock(raw notion.Block) Block {
	block := Block{
		ID:          raw.ID,
		Type:        raw.Type,
		HasChildren: raw.HasChildren,
	}

	switch raw.Type {
	case TypeParagraph:
		block.Paragraph = decodeText(raw.Payload)
	case TypeHeading1:
		block.Heading1 = decodeText(raw.Payload)
	case TypeHeading2:
		block.Heading2 = decodeText(raw.Payload)
	case TypeHeading3:
		block.Heading3 = decodeText(raw.Payload)
	case TypeBulletedListItem:
		block.BulletedListItem = decodeText(raw.Payload)
	case TypeNumberedListItem:
		block.NumberedListItem = decodeText(raw.Payload)
	case TypeToggle:
		block.Toggle = decodeText(raw.Payload)
	case TypeQuote:
		block.Quote = decodeText(raw.Payload)
	case TypeToDo:
		block.ToDo = decodeToDo(raw.Payload)
	case TypeCallout:
		block.Callout = decodeCallout(raw.Payload)
	case TypeCode:
		block.Code = decodeCode(raw.Payload)
	case TypeImage:
		block.Image = decodeMedia(raw.Payload)
	case TypeVideo:
		block.Video = decodeMedia(raw.Payload)
	case TypeAudio:
		block.Audio = decodeMedia(raw.Payload)
	case TypeFile:
		block.File = decodeMedia(raw.Payload)
	case TypePDF:
		block.PDF = decodeMedia(raw.Payload)
	case TypeBookmark:
		block.Bookmark = decodeBookmark(raw.Payload)
	case TypeEmbed:
		block.Embed = decodeEmbed(raw.Payload)
	case TypeEquation:
		block.Equation = decodeEquation(raw.Payload)
	case TypeChildPage:
		block.ChildPage = decodeChildPage(raw.Payload)
	case TypeChildDatabase:
		block.ChildDatabase = decodeChildDatabase(raw.Payload)
	case TypeLinkToPage:
		block.LinkToPage = decodeLinkToPage(raw.Payload)
	case TypeTable:
		block.Table = decodeTable(raw.Payload)
	case TypeTableRow:
		block.TableRow = decodeTableRow(raw.Payload)
	case TypeDivider, TypeColumnList, TypeColumn, TypeTableOfContents, TypeBreadcrumb:
		// Structural blocks carry no payload worth normalizing.
	default:
		block.Raw = raw.Payload
	}
	return block
}

func rawPlainText(runs []notion.RichText) string {
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(run.PlainText)
	}
	return sb.String()
}

func propertyRichText(page *notion.Page, name string) []notion.RichText {
	for key, prop := range page.Properties {
		if strings.EqualFold(strings.TrimSpace(key), name) && prop.Type == "rich_text" {
			return prop.RichText
		}
	}
	return nil
}

func selectValue(page *notion.Page, name string) string {
	for key, prop := range page.Properties {
		if strings.EqualFold(strings.TrimSpace(key), name) && prop.Select != nil {
			return prop.Select.Name
		}
	}
	return ""
}

func checkboxValue(page *notion.Page, name string) bool {
	for key, prop := range page.Properties {
		if strings.EqualFold(strings.TrimSpace(key), name) && prop.Checkbox != nil {
			return *prop.Checkbox
		}
	}
	return false
}

func iconOf(ref *notion.FileRef) string {
	if ref == nil {
		return ""
	}
	if ref.Emoji != "" {
		return ref.Emoji
	}
	return ref.URL()
}

type rawTextPayload struct {
	RichText []notion.RichText `json:"rich_text"`
	Color    string            `json:"color"`
	Checked  bool              `json:"checked"`
	Language string            `json:"language"`
	Caption  []notion.RichText `json:"caption"`
	Icon     *notion.FileRef   `json:"icon"`
}

func decodeText(payload json.RawMessage) *TextPayload {
	var raw rawTextPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &TextPayload{}
	}
	return &TextPayload{RichText: NormalizeRichText(raw.RichText), Color: raw.Color}
}

func decodeToDo(payload json.RawMessage) *ToDoPayload {
	var raw rawTextPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &ToDoPayload{}
	}
	return &ToDoPayload{RichText: NormalizeRichText(raw.RichText), Checked: raw.Checked}
}

func decodeCallout(payload json.RawMessage) *CalloutPayload {
	var raw rawTextPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &CalloutPayload{}
	}
	return &CalloutPayload{
		RichText: NormalizeRichText(raw.RichText),
		Icon:     iconOf(raw.Icon),
		Color:    raw.Color,
	}
}

func decodeCode(payload json.RawMessage) *CodePayload {
	var raw rawTextPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &CodePayload{}
	}
	return &CodePayload{
		RichText: NormalizeRichText(raw.RichText),
		Language: raw.Language,
		Caption:  NormalizeRichText(raw.Caption),
	}
}

type rawMediaPayload struct {
	Type     string `json:"type"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
	File *struct {
		URL string `json:"url"`
	} `json:"file"`
	URL     string            `json:"url"`
	Caption []notion.RichText `json:"caption"`
}

func (r rawMediaPayload) resolvedURL() string {
	if r.External != nil {
		return r.External.URL
	}
	if r.File != nil {
		return r.File.URL
	}
	return r.URL
}

func decodeMedia(payload json.RawMessage) *MediaPayload {
	var raw rawMediaPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &MediaPayload{}
	}
	return &MediaPayload{URL: raw.resolvedURL(), Caption: NormalizeRichText(raw.Caption)}
}

func decodeBookmark(payload json.RawMessage) *BookmarkPayload {
	var raw rawMediaPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &BookmarkPayload{}
	}
	return &BookmarkPayload{URL: raw.resolvedURL(), Caption: NormalizeRichText(raw.Caption)}
}

func decodeEmbed(payload json.RawMessage) *EmbedPayload {
	var raw rawMediaPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &EmbedPayload{}
	}
	return &EmbedPayload{URL: raw.resolvedURL()}
}

func decodeEquation(payload json.RawMessage) *EquationPayload {
	var raw struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &EquationPayload{}
	}
	return &EquationPayload{Expression: raw.Expression}
}

func decodeChildPage(payload json.RawMessage) *ChildPagePayload {
	var raw struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &ChildPagePayload{}
	}
	return &ChildPagePayload{Title: raw.Title}
}

func decodeChildDatabase(payload json.RawMessage) *ChildDatabasePayload {
	var raw struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &ChildDatabasePayload{}
	}
	return &ChildDatabasePayload{Title: raw.Title}
}

func decodeLinkToPage(payload json.RawMessage) *LinkToPagePayload {
	var raw struct {
		PageID     string `json:"page_id"`
		DatabaseID string `json:"database_id"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &LinkToPagePayload{}
	}
	return &LinkToPagePayload{PageID: raw.PageID, DatabaseID: raw.DatabaseID}
}

func decodeTable(payload json.RawMessage) *TablePayload {
	var raw struct {
		TableWidth      int  `json:"table_width"`
		HasColumnHeader bool `json:"has_column_header"`
		HasRowHeader    bool `json:"has_row_header"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &TablePayload{}
	}
	return &TablePayload{TableWidth: raw.TableWidth, HasColumnHeader: raw.HasColumnHeader, HasRowHeader: raw.HasRowHeader}
}

func decodeTableRow(payload json.RawMessage) *TableRowPayload {
	var raw struct {
		Cells [][]notion.RichText `json:"cells"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &TableRowPayload{}
	}
	cells := make([][]RichText, len(raw.Cells))
	for i, cell := range raw.Cells {
		cells[i] = NormalizeRichText(cell)
	}
	return &TableRowPayload{Cells: cells}
}

// Cohort database property names, matched case-insensitively like the page
// properties above.
const (
	propHub       = "hub"
	propTimezone  = "timezone"
	propStartDate = "start date"
)

// NormalizeCohort projects one row of the cohorts database. The hub relation
// is stored as the hub page's upstream ID in a rich-text column; matching
// against the hub bundle happens at overlay time.
func NormalizeCohort(page *notion.Page) (Cohort, error) {
	if page == nil {
		return Cohort{}, ErrSlugRequired
	}
	if page.Archived {
		return Cohort{}, ErrPageArchived
	}
	slug, err := SlugOf(page)
	if err != nil {
		return Cohort{}, err
	}
	cohort := Cohort{
		Slug:        slug,
		Name:        TitleOf(page),
		HubNotionID: strings.TrimSpace(rawPlainText(propertyRichText(page, propHub))),
		Timezone:    selectValue(page, propTimezone),
	}
	if cohort.Timezone == "" {
		cohort.Timezone = strings.TrimSpace(rawPlainText(propertyRichText(page, propTimezone)))
	}
	if cohort.Timezone == "" {
		cohort.Timezone = "UTC"
	}
	if start, ok := dateValue(page, propStartDate); ok {
		cohort.StartDate = start
	}
	return cohort, nil
}

func dateValue(page *notion.Page, name string) (time.Time, bool) {
	for key, prop := range page.Properties {
		if !strings.EqualFold(strings.TrimSpace(key), name) || prop.Date == nil {
			continue
		}
		raw := strings.TrimSpace(prop.Date.Start)
		if raw == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
