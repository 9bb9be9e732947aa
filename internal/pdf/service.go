package pdf

import (
	"context"
	"log"
)

type PDFService struct {
	rast Rasterizer
}

func NewPDFService(r Rasterizer) *PDFService {
	return &PDFService{rast: r}
}

// Convert — preflight через pdfcpu, потом рендер
func (s *PDFService) Convert(ctx context.Context, pdfPath string, dpi int) ([]Page, error) {
	pageCount, err := Preflight(pdfPath)
	if err != nil {
		return nil, err
	}
	log.Printf("[pdf] %s: %d pages, dpi=%d", pdfPath, pageCount, dpi)

	return s.rast.Rasterize(ctx, pdfPath, dpi)
}
