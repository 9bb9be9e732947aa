package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type PopplerRasterizer struct {
	timeout time.Duration
}

func NewPopplerRasterizer(timeout time.Duration) *PopplerRasterizer {
	return &PopplerRasterizer{timeout: timeout}
}

func (c *PopplerRasterizer) Rasterize(
	ctx context.Context,
	pdfPath string,
	dpi int,
) ([]Page, error) {

	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// страницы складываем рядом с input.pdf
	outDir := filepath.Join(filepath.Dir(pdfPath), "pages")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	outBase := filepath.Join(outDir, "page")

	// запускаем poppler
	cmd := exec.CommandContext(
		ctx,
		"pdftoppm",
		"-jpeg",
		"-r", strconv.Itoa(dpi),
		"-jpegopt", fmt.Sprintf("quality=%d,optimize=y", JPEGQuality),
		pdfPath,
		outBase,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pdftoppm: timeout after %s", c.timeout)
		}
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	// собираем page-1.jpg, page-2.jpg, ...
	// pdftoppm добивает номера нулями (page-01.jpg при 10+ страницах),
	// поэтому читаем директорию, а не угадываем имена
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".jpg"))
		if err != nil {
			continue
		}
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, Page{Number: num, Bytes: b})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages generated")
	}
	return pages, nil
}
