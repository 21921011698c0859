package service

import (
	"context"
	"sync"

	"github.com/tirasundara/payment-converter/internal/domain"
)

type job struct {
	index int
	req   ConversionRequest
}

type jobResult struct {
	index  int
	result domain.ConversionResult
}

// ConvertAll runs independent conversions on a pool of numWorkers
// goroutines. Results come back in request order. Requests not yet started
// when ctx is cancelled fail with a cancellation message.
func (s *ConversionService) ConvertAll(ctx context.Context, reqs []ConversionRequest, numWorkers int) []domain.ConversionResult {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(reqs) {
		numWorkers = len(reqs)
	}

	jobs := make(chan job, numWorkers)
	results := make(chan jobResult, numWorkers)

	var wg sync.WaitGroup
	s.startWorkers(ctx, numWorkers, &wg, jobs, results)

	// Close results once every worker is done
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for i, req := range reqs {
			jobs <- job{index: i, req: req}
		}
	}()

	out := make([]domain.ConversionResult, len(reqs))
	for r := range results {
		out[r.index] = r.result
	}
	return out
}

// startWorkers creates a pool of worker goroutines to run conversions
func (s *ConversionService) startWorkers(ctx context.Context, numWorkers int, wg *sync.WaitGroup,
	jobs <-chan job, results chan<- jobResult) {

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := range jobs {
				logger := s.log.WithField("index", j.index)
				progress := func(msg string) {
					logger.Debug(msg)
				}
				results <- jobResult{index: j.index, result: s.ConvertFile(ctx, j.req, progress)}
			}
		}()
	}
}
