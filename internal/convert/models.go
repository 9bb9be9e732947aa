package convert

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/pdf_ziper/internal/pdf"
)

type SourceKind int

const (
	SourceInline SourceKind = iota // чистый base64 PDF
	SourceBlob                     // multipart-заготовка, идёт через экстрактор
	SourceURL                      // http(s):// или s3://
)

type Source struct {
	Kind   SourceKind
	Inline string
	Blob   string
	URL    string
}

// Task — одна единица работы планировщика.
// ID уникален в рамках вызова.
type Task struct {
	ID     string
	Source Source
	DPI    int
}

// Result — итог по одному извлечённому документу
type Result struct {
	ID    string
	Pages []pdf.Page
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher — удалённый источник PDF
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Converter — PDF на диске → страницы-JPEG
type Converter interface {
	Convert(ctx context.Context, pdfPath string, dpi int) ([]pdf.Page, error)
}
