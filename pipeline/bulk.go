package pipeline

import (
	"context"
	"fmt"
	"time"
)

// BulkResult captures the outcome of one item of a bulk run.
type BulkResult struct {
	ID      string `json:"document_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BulkProcess runs the pipeline over each id strictly sequentially, with
// a pacing delay between items to respect downstream rate limits. One
// item's failure is recorded and the run continues; the result slice
// preserves input order and always has one entry per id.
func (o *Orchestrator) BulkProcess(ctx context.Context, ids []string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))

	for i, id := range ids {
		if i > 0 && o.pacing > 0 {
			time.Sleep(o.pacing)
		}

		doc, err := o.Process(ctx, id)
		if err != nil {
			results = append(results, BulkResult{
				ID:      id,
				Success: false,
				Message: err.Error(),
			})
			continue
		}
		results = append(results, BulkResult{
			ID:      id,
			Success: true,
			Message: fmt.Sprintf("document enhanced using %s", doc.ProviderUsed),
		})
	}

	o.logger.Info("bulk processing complete", "total", len(ids))
	return results
}
