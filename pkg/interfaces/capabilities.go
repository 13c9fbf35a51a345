package interfaces

import "context"

// ImageSizer reports intrinsic dimensions for a remote image so the rendering
// layer can reserve layout space. It is an optional capability selected once at
// startup via configuration; a nil sizer disables dimension probing entirely.
type ImageSizer interface {
	Size(ctx context.Context, url string) (width, height int, err error)
}
