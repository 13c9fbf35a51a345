package notion

import (
	"encoding/json"
	"time"
)

// Annotations carries the formatting flags attached to one rich text run.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color,omitempty"`
}

// RichText is one formatted text run. Run boundaries are meaningful and must
// never be merged or reordered downstream.
type RichText struct {
	Type        string      `json:"type,omitempty"`
	PlainText   string      `json:"plain_text"`
	Href        *string     `json:"href,omitempty"`
	Annotations Annotations `json:"annotations"`
}

// Block is one raw node of the upstream document tree. The variant payload is
// published under a key named after Type; UnmarshalJSON captures it verbatim
// so normalization can interpret it without the client enumerating every type.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Archived    bool
	// Payload holds the raw JSON value of the <type> field, untouched.
	Payload json.RawMessage
}

type blockEnvelope struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
	Archived    bool   `json:"archived"`
}

// UnmarshalJSON splits the fixed envelope fields from the per-type payload.
func (b *Block) UnmarshalJSON(data []byte) error {
	var envelope blockEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	b.ID = envelope.ID
	b.Type = envelope.Type
	b.HasChildren = envelope.HasChildren
	b.Archived = envelope.Archived
	b.Payload = fields[envelope.Type]
	return nil
}

// MarshalJSON restores the wire shape so raw blocks round-trip through caches.
func (b Block) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":           b.ID,
		"type":         b.Type,
		"has_children": b.HasChildren,
		"archived":     b.Archived,
	}
	if len(b.Payload) > 0 {
		out[b.Type] = json.RawMessage(b.Payload)
	}
	return json.Marshal(out)
}

// SelectOption is a value of a select or multi-select property.
type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is the payload of a date property.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// Property is one page property in its raw polymorphic form.
type Property struct {
	ID          string         `json:"id,omitempty"`
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	URL         *string        `json:"url,omitempty"`
}

// FileRef points at an icon, cover or file attachment.
type FileRef struct {
	Type     string `json:"type"`
	Emoji    string `json:"emoji,omitempty"`
	External *struct {
		URL string `json:"url"`
	} `json:"external,omitempty"`
	File *struct {
		URL        string    `json:"url"`
		ExpiryTime time.Time `json:"expiry_time,omitempty"`
	} `json:"file,omitempty"`
}

// URL resolves the reference to a plain address when one exists.
func (f *FileRef) URL() string {
	if f == nil {
		return ""
	}
	if f.External != nil {
		return f.External.URL
	}
	if f.File != nil {
		return f.File.URL
	}
	return ""
}

// Page is the raw upstream page record.
type Page struct {
	ID             string              `json:"id"`
	Archived       bool                `json:"archived"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Icon           *FileRef            `json:"icon,omitempty"`
	Cover          *FileRef            `json:"cover,omitempty"`
	Properties     map[string]Property `json:"properties"`
}

// Database is the raw upstream database record.
type Database struct {
	ID    string     `json:"id"`
	Title []RichText `json:"title,omitempty"`
}

// QueryDatabaseRequest captures the filter and cursor for one database query page.
type QueryDatabaseRequest struct {
	Filter      map[string]any   `json:"filter,omitempty"`
	Sorts       []map[string]any `json:"sorts,omitempty"`
	StartCursor string           `json:"start_cursor,omitempty"`
	PageSize    int              `json:"page_size,omitempty"`
}

// QueryDatabaseResponse is one result page of a database query.
type QueryDatabaseResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// ListBlockChildrenResponse is one result page of a block children listing.
type ListBlockChildrenResponse struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// SearchResult is one hit of the global search endpoint.
type SearchResult struct {
	Object string     `json:"object"`
	ID     string     `json:"id"`
	Title  []RichText `json:"title,omitempty"`
}

// SearchResponse is one result page of the global search endpoint.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor *string        `json:"next_cursor"`
}
