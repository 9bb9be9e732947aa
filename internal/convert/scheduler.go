package convert

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxConcurrent = 3
	// жёсткий потолок, что бы ни просили снаружи:
	// каждая задача держит в памяти все растры своих страниц
	ConcurrencyCeiling = 5
)

type Scheduler struct {
	worker        *Worker
	maxConcurrent int
}

func NewScheduler(w *Worker, maxConcurrent int) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxConcurrent > ConcurrencyCeiling {
		maxConcurrent = ConcurrencyCeiling
	}
	return &Scheduler{worker: w, maxConcurrent: maxConcurrent}
}

// Run гонит задачи через пул с ограничением параллелизма.
// Падение одной задачи не трогает остальные; результатов минимум
// столько же, сколько задач (blob может развернуться в несколько).
func (s *Scheduler) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	// общий рабочий каталог вызова, после — подчистим
	workDir, err := os.MkdirTemp("", "pdf-ziper-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	limit := s.maxConcurrent
	if len(tasks) < limit {
		limit = len(tasks)
	}
	log.Printf("[scheduler] %d tasks, concurrency=%d", len(tasks), limit)

	// слот на задачу — воркеры не делят изменяемое состояние
	slots := make([][]Result, len(tasks))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, t := range tasks {
		i, t := i, t
		eg.Go(func() error {
			slots[i] = s.worker.Run(gctx, t, workDir)
			return nil // ошибки задач группу не валят
		})
	}
	_ = eg.Wait()

	var results []Result
	for _, rs := range slots {
		results = append(results, rs...)
	}
	return results, nil
}
