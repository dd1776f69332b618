package port

import "errors"

type ImageInfo struct {
	Width    int
	Height   int
	HasAlpha bool
}

type ImageInspector interface {
	Inspect(path string) (*ImageInfo, error)
}

type ImageResizer interface {
	// Downsize shrinks the image at path by factor in both dimensions and
	// overwrites it, returning the new size.
	Downsize(path string, factor int) (width, height int, err error)
}

// ErrNotImage is returned for files whose contents are not a decodable image.
var ErrNotImage = errors.New("not a decodable image")
