package ports

import (
	"context"

	"github.com/Vovarama1992/pdf_ziper/internal/convert"
)

// Сервис конвертации для delivery-слоя
type ConvertService interface {
	Run(ctx context.Context, tasks []convert.Task) ([]convert.Result, error)
}
