package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Vovarama1992/pdf_ziper/internal/convert"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/flate"
)

// ErrEmpty — ни один документ не сконвертировался, отдавать нечего
var ErrEmpty = errors.New("archive: no documents converted")

type NamingMode string

const (
	NamingFlat    NamingMode = "flat"
	NamingGrouped NamingMode = "grouped"
)

type DocStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Pages  int    `json:"pages,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report — machine-readable итог по всему вызову
type Report struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Pages     int         `json:"pages"`
	Documents []DocStatus `json:"documents"`
}

// Assemble пакует страницы всех успешных документов в один zip.
// Раскладка детерминирована: документы сортируются по id, порядок
// завершения задач ни на что не влияет.
//
// Report заполняется всегда, даже при ErrEmpty — наверху из него
// собирают ответ с разбивкой по документам.
func Assemble(results []convert.Result, mode NamingMode) ([]byte, Report, error) {
	sorted := append([]convert.Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rep := Report{Total: len(sorted)}
	var ok []convert.Result
	for _, r := range sorted {
		if !r.OK() {
			rep.Failed++
			rep.Documents = append(rep.Documents, DocStatus{ID: r.ID, Status: "failure", Error: r.Err.Error()})
			continue
		}
		rep.Succeeded++
		rep.Pages += len(r.Pages)
		rep.Documents = append(rep.Documents, DocStatus{ID: r.ID, Status: "success", Pages: len(r.Pages)})
		ok = append(ok, r)
	}

	if len(ok) == 0 {
		return nil, rep, ErrEmpty
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	// JPEG почти не жмётся, быстрый deflate выгоднее
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, r := range ok {
		for _, p := range r.Pages {
			w, err := zw.Create(entryPath(mode, r.ID, p.Number, rep.Total))
			if err != nil {
				return nil, rep, fmt.Errorf("zip entry: %w", err)
			}
			if _, err := w.Write(p.Bytes); err != nil {
				return nil, rep, fmt.Errorf("zip write: %w", err)
			}
		}
	}

	// сводку кладём только когда документов было несколько
	if rep.Total > 1 {
		w, err := zw.Create("summary.json")
		if err != nil {
			return nil, rep, fmt.Errorf("zip summary entry: %w", err)
		}
		payload, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, rep, fmt.Errorf("marshal summary: %w", err)
		}
		if _, err := w.Write(payload); err != nil {
			return nil, rep, fmt.Errorf("write summary: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, rep, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), rep, nil
}

func entryPath(mode NamingMode, id string, page, total int) string {
	if mode == NamingGrouped {
		return fmt.Sprintf("%s/page_%d.jpg", id, page)
	}
	if total == 1 {
		return fmt.Sprintf("page_%d.jpg", page)
	}
	return fmt.Sprintf("%s_page_%d.jpg", id, page)
}
