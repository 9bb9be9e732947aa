package convert

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/pdf_ziper/internal/extract"
	"github.com/dustin/go-humanize"
)

var pdfMagic = []byte("%PDF")

type Worker struct {
	conv        Converter
	fetcher     Fetcher
	extractOpts extract.Options
}

func NewWorker(conv Converter, fetcher Fetcher, extractOpts extract.Options) *Worker {
	return &Worker{conv: conv, fetcher: fetcher, extractOpts: extractOpts}
}

// Run обрабатывает одну задачу целиком: источник → байты PDF → страницы.
// Blob может развернуться в несколько документов, тогда результатов
// несколько — id родителя плюс позиционный суффикс.
//
// Любой сбой превращается в Result с Err — наружу ничего не летит.
func (w *Worker) Run(ctx context.Context, task Task, workDir string) (results []Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[convert] PANIC task=%s: %v", task.ID, r)
			results = []Result{{ID: task.ID, Err: fmt.Errorf("task %s: panic: %v", task.ID, r)}}
		}
	}()

	docs, err := w.resolve(ctx, task)
	if err != nil {
		log.Printf("[convert] task=%s resolve error: %v", task.ID, err)
		return []Result{{ID: task.ID, Err: err}}
	}

	if len(docs) == 1 {
		return []Result{w.convertOne(ctx, task.ID, docs[0], task.DPI, workDir)}
	}
	for k, doc := range docs {
		id := fmt.Sprintf("%s_%d", task.ID, k+1)
		results = append(results, w.convertOne(ctx, id, doc, task.DPI, workDir))
	}
	return results
}

// resolve достаёт из источника один или несколько PDF-документов
func (w *Worker) resolve(ctx context.Context, task Task) ([][]byte, error) {
	switch task.Source.Kind {
	case SourceInline:
		raw := extract.DecodeOuter([]byte(task.Source.Inline))
		if !bytes.HasPrefix(raw, pdfMagic) {
			return nil, fmt.Errorf("inline content is not a pdf")
		}
		return [][]byte{raw}, nil

	case SourceURL:
		raw, err := w.fetcher.Fetch(ctx, task.Source.URL)
		if err != nil {
			return nil, &FetchError{URL: task.Source.URL, Err: err}
		}
		if bytes.HasPrefix(raw, pdfMagic) {
			return [][]byte{raw}, nil
		}
		// по ссылке может лежать multipart или base64 — пробуем экстрактор
		return extract.Extract(extract.DecodeOuter(raw), w.extractOpts)

	case SourceBlob:
		return extract.Extract(extract.DecodeOuter([]byte(task.Source.Blob)), w.extractOpts)

	default:
		return nil, fmt.Errorf("unknown source kind %d", task.Source.Kind)
	}
}

func (w *Worker) convertOne(ctx context.Context, id string, doc []byte, dpi int, workDir string) Result {
	// у каждой задачи свой под-путь, коллизий между воркерами нет
	taskDir := filepath.Join(workDir, safeID(id))
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return Result{ID: id, Err: fmt.Errorf("task dir: %w", err)}
	}

	pdfPath := filepath.Join(taskDir, "input.pdf")
	if err := os.WriteFile(pdfPath, doc, 0o644); err != nil {
		return Result{ID: id, Err: fmt.Errorf("write pdf: %w", err)}
	}

	log.Printf("[convert] %s: converting %s", id, humanize.Bytes(uint64(len(doc))))

	pages, err := w.conv.Convert(ctx, pdfPath, dpi)
	if err != nil {
		return Result{ID: id, Err: fmt.Errorf("convert %s: %w", id, err)}
	}
	return Result{ID: id, Pages: pages}
}

// safeID — id в путь файловой системы без сюрпризов.
// Если пришлось что-то заменить, добавляем hash, чтобы два разных id
// не схлопнулись в один путь.
func safeID(id string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	if mapped == id {
		return mapped
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("%s_%08x", mapped, h.Sum32())
}
