package content

import "errors"

var (
	ErrSlugRequired = errors.New("content: slug is required")
	ErrSlugInvalid  = errors.New("content: slug contains invalid characters")
	ErrPageArchived = errors.New("content: page is archived")
)

// UntitledFallback is the defined display title for pages whose title property
// is absent or empty. This is a documented fallback, not an error.
const UntitledFallback = "Untitled"
