package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Preflight проверяет структуру PDF до запуска poppler и
// возвращает количество страниц. Валидация relaxed — сканы и
// кривые генераторы PDF нам тоже нужны.
func Preflight(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, cfg); err != nil {
		return 0, fmt.Errorf("pdf validation: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if pageCount == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return pageCount, nil
}
