package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
)

var (
	pdfMagic  = []byte("%PDF")
	eofMarker = []byte("%%EOF")
)

// DefaultMinBoundaryLen — короткие "--" строки (тире в тексте и т.п.)
// не считаем multipart-границей
const DefaultMinBoundaryLen = 10

type Options struct {
	MinBoundaryLen int
}

// Error — из blob не удалось достать ни одного PDF
type Error struct {
	BlobLen int
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract: no pdf recovered from blob of %s: %s",
		humanize.Bytes(uint64(e.BlobLen)), e.Reason)
}

// состояние сканера multipart-секций
type scanState int

const (
	seekingMarker scanState = iota
	inHeaders
	inBody
)

// Extract достаёт все валидные PDF из сырого блоба.
// Структура блоба не гарантирована: границы и заголовки могут быть
// битыми или отсутствовать совсем, поэтому всё best-effort.
//
// Каждый возвращённый документ гарантированно начинается с %PDF.
func Extract(blob []byte, opts Options) ([][]byte, error) {
	if opts.MinBoundaryLen <= 0 {
		opts.MinBoundaryLen = DefaultMinBoundaryLen
	}

	// 1. MULTIPART-СЕКЦИИ
	sections := scanSections(blob, opts.MinBoundaryLen)

	var docs [][]byte
	for _, sec := range sections {
		if doc, ok := decodeSection(sec); ok {
			docs = append(docs, doc)
		}
		// секции, которые не декодировались — молча пропускаем
	}

	if len(docs) > 0 {
		log.Printf("[extract] blob %s: %d sections, %d documents",
			humanize.Bytes(uint64(len(blob))), len(sections), len(docs))
		return docs, nil
	}

	// 2. FALLBACK: бинарный поиск %PDF ... %%EOF
	docs = binaryScan(blob)
	if len(docs) > 0 {
		log.Printf("[extract] blob %s: binary scan recovered %d documents",
			humanize.Bytes(uint64(len(blob))), len(docs))
		return docs, nil
	}

	reason := "no section markers and no pdf signature found"
	if len(sections) > 0 {
		reason = fmt.Sprintf("found %d candidate sections, none decoded to a valid pdf", len(sections))
	}
	return nil, &Error{BlobLen: len(blob), Reason: reason}
}

// scanSections идёт по строкам и собирает тела секций-кандидатов.
// Маркер секции: строка с application/pdf или filename=*.pdf.
// Тело начинается после первой пустой строки и заканчивается на
// boundary-строке ("--...", длиннее minBoundary) или в конце блоба.
func scanSections(blob []byte, minBoundary int) [][][]byte {
	lines := bytes.Split(blob, []byte("\n"))

	var sections [][][]byte
	var cur [][]byte
	state := seekingMarker

	for _, line := range lines {
		switch state {
		case seekingMarker:
			if isMarker(line) {
				state = inHeaders
			}
		case inHeaders:
			if len(bytes.TrimSpace(line)) == 0 {
				cur = nil
				state = inBody
			}
		case inBody:
			marker := isMarker(line)
			if marker || isBoundary(line, minBoundary) {
				sections = append(sections, cur)
				cur = nil
				if marker {
					// новая секция без boundary между ними — терпим
					state = inHeaders
				} else {
					state = seekingMarker
				}
				continue
			}
			cur = append(cur, line)
		}
	}
	if state == inBody {
		sections = append(sections, cur)
	}
	return sections
}

func isMarker(line []byte) bool {
	l := bytes.ToLower(bytes.TrimSpace(line))
	if bytes.Contains(l, []byte("application/pdf")) {
		return true
	}
	return bytes.Contains(l, []byte("filename=")) && bytes.Contains(l, []byte(".pdf"))
}

func isBoundary(line []byte, min int) bool {
	t := bytes.TrimRight(line, "\r")
	return bytes.HasPrefix(t, []byte("--")) && len(t) > min
}

// decodeSection пробует тело секции как base64, потом как сырые байты
func decodeSection(lines [][]byte) ([]byte, bool) {
	joined := bytes.TrimSpace(bytes.Join(lines, []byte("\n")))
	if len(joined) == 0 {
		return nil, false
	}

	if doc, err := decodeBase64(joined); err == nil && bytes.HasPrefix(doc, pdfMagic) {
		return doc, true
	}

	// не base64 — может, PDF лежит в секции как есть
	if bytes.HasPrefix(joined, pdfMagic) {
		return joined, true
	}
	return nil, false
}

func binaryScan(blob []byte) [][]byte {
	var docs [][]byte
	idx := 0
	for {
		off := bytes.Index(blob[idx:], pdfMagic)
		if off < 0 {
			break
		}
		start := idx + off
		rest := blob[start+len(pdfMagic):]

		end := len(blob)
		if e := bytes.Index(rest, eofMarker); e >= 0 {
			end = start + len(pdfMagic) + e + len(eofMarker)
		} else if n := bytes.Index(rest, pdfMagic); n >= 0 {
			end = start + len(pdfMagic) + n
		}

		docs = append(docs, blob[start:end])
		idx = end
	}
	return docs
}

// DecodeOuter снимает внешний base64-слой, если он есть.
// Если блоб не декодируется — возвращаем как есть, без потерь.
func DecodeOuter(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw
	}
	if b, err := decodeBase64(trimmed); err == nil {
		return b
	}
	return raw
}

// decodeBase64 терпит переносы строк внутри и отсутствие паддинга
func decodeBase64(data []byte) ([]byte, error) {
	compact := make([]byte, 0, len(data))
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			compact = append(compact, c)
		}
	}
	if b, err := base64.StdEncoding.DecodeString(string(compact)); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(string(compact))
}
