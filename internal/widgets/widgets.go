// Package widgets detects inline widget declarations authored as YAML inside
// code blocks. Detection is decoupled from rendering: the detector answers
// whether a declaration exists, the renderer decides what to do with it.
package widgets

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/webizupfr/notion-mirror/internal/content"
	"gopkg.in/yaml.v3"
)

// Widget types the renderer knows how to mount. Declarations naming any other
// type are not considered widgets.
const (
	TypeQuiz      = "quiz"
	TypePoll      = "poll"
	TypeChecklist = "checklist"
	TypeCountdown = "countdown"
	TypeFeedback  = "feedback"
)

var knownTypes = map[string]struct{}{
	TypeQuiz:      {},
	TypePoll:      {},
	TypeChecklist: {},
	TypeCountdown: {},
	TypeFeedback:  {},
}

var (
	ErrNotCodeBlock   = errors.New("widgets: block is not a code block")
	ErrEmptySource    = errors.New("widgets: code block has no source text")
	ErrNotDeclaration = errors.New("widgets: source is not a widget declaration")
	ErrUnknownType    = errors.New("widgets: unknown widget type")
)

// Declaration is a parsed inline widget: its type plus the free-form
// configuration handed to the renderer unchanged.
type Declaration struct {
	Widget string         `yaml:"widget" json:"widget"`
	Config map[string]any `yaml:"config" json:"config,omitempty"`
}

// Detect reports whether any code block in blocks carries a valid widget
// declaration. Only code blocks are candidates; everything else is skipped
// without inspection.
func Detect(blocks []content.Block) bool {
	for _, block := range blocks {
		if block.Type != content.TypeCode {
			continue
		}
		if _, err := Parse(block); err == nil {
			return true
		}
	}
	return false
}

// Parse extracts the widget declaration from a single code block. The source
// text is rebuilt by joining the block's rich-text runs with newlines, so
// declarations split across runs by the editor still parse as one document.
func Parse(block content.Block) (*Declaration, error) {
	if block.Type != content.TypeCode || block.Code == nil {
		return nil, ErrNotCodeBlock
	}
	source := Source(block)
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	var decl Declaration
	if err := yaml.Unmarshal([]byte(source), &decl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDeclaration, err)
	}
	decl.Widget = strings.ToLower(strings.TrimSpace(decl.Widget))
	if decl.Widget == "" {
		return nil, ErrNotDeclaration
	}
	if _, ok := knownTypes[decl.Widget]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, decl.Widget)
	}
	if schema, ok := configSchemas[decl.Widget]; ok {
		cfg, err := normalizeForSchema(decl.Config)
		if err != nil {
			return nil, fmt.Errorf("widgets: invalid %s config: %w", decl.Widget, err)
		}
		if err := schema.Validate(cfg); err != nil {
			return nil, fmt.Errorf("widgets: invalid %s config: %w", decl.Widget, err)
		}
	}
	return &decl, nil
}

// Source rebuilds the literal text of a code block from its rich-text runs.
func Source(block content.Block) string {
	if block.Code == nil {
		return ""
	}
	parts := make([]string, 0, len(block.Code.RichText))
	for _, run := range block.Code.RichText {
		parts = append(parts, run.PlainText)
	}
	return strings.Join(parts, "\n")
}

// The schema validator only accepts values in the shapes json.Unmarshal
// produces, while yaml.v3 hands back Go ints. A JSON round trip normalizes
// the whole config tree in one step.
func normalizeForSchema(config map[string]any) (any, error) {
	if config == nil {
		config = map[string]any{}
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var configSchemas = map[string]*jsonschema.Schema{}

func init() {
	compile := func(name, schema string) *jsonschema.Schema {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(name+".json", strings.NewReader(schema)); err != nil {
			panic(err)
		}
		return c.MustCompile(name + ".json")
	}

	configSchemas[TypeQuiz] = compile(TypeQuiz, `{
		"type": "object",
		"required": ["questions"],
		"properties": {
			"questions": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["prompt"],
					"properties": {
						"prompt": {"type": "string", "minLength": 1},
						"options": {"type": "array", "items": {"type": "string"}},
						"answer": {"type": ["string", "integer"]}
					}
				}
			}
		}
	}`)

	configSchemas[TypePoll] = compile(TypePoll, `{
		"type": "object",
		"required": ["question", "options"],
		"properties": {
			"question": {"type": "string", "minLength": 1},
			"options": {"type": "array", "minItems": 2, "items": {"type": "string"}}
		}
	}`)

	configSchemas[TypeChecklist] = compile(TypeChecklist, `{
		"type": "object",
		"required": ["items"],
		"properties": {
			"items": {"type": "array", "minItems": 1, "items": {"type": "string"}}
		}
	}`)

	configSchemas[TypeCountdown] = compile(TypeCountdown, `{
		"type": "object",
		"required": ["until"],
		"properties": {
			"until": {"type": "string", "minLength": 1},
			"label": {"type": "string"}
		}
	}`)
}
