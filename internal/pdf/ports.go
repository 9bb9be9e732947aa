package pdf

import (
	"context"
)

const (
	DefaultDPI  = 150
	JPEGQuality = 85
)

// Page — одна отрендеренная страница, нумерация с 1
type Page struct {
	Number int
	Bytes  []byte
}

type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error)
}
