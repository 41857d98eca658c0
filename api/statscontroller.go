package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"articleforge/store"
	"articleforge/types"
)

// StatsSummary aggregates store-wide counters.
type StatsSummary struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	ByProvider        map[string]int `json:"by_provider"`
	AvgProcessingMS   int64          `json:"avg_processing_ms"`
	TotalWordsAdded   int            `json:"total_words_added"`
	ReferencesAverage float64        `json:"references_average"`
}

// handleStatsSummary aggregates counters across all documents.
// GET /api/stats/summary
func (s *Server) handleStatsSummary(c *gin.Context) {
	ctx := c.Request.Context()
	summary := StatsSummary{
		ByStatus:   map[string]int{},
		ByProvider: map[string]int{},
	}

	var (
		processed     int
		totalElapsed  time.Duration
		totalRefs     int
		enhancedCount int
	)

	for page := 1; ; page++ {
		docs, total, err := s.store.List(ctx, store.ListOptions{Page: page, Limit: 200})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		summary.Total = total

		for _, doc := range docs {
			summary.ByStatus[string(doc.Status)]++
			if doc.ProviderUsed != "" {
				summary.ByProvider[doc.ProviderUsed]++
			}
			if doc.Status == types.StatusUpdated {
				enhancedCount++
				totalRefs += len(doc.AcquiredReferences)
				if added := doc.WordCount.Updated - doc.WordCount.Original; added > 0 {
					summary.TotalWordsAdded += added
				}
			}
			if doc.ProcessingTime > 0 {
				processed++
				totalElapsed += doc.ProcessingTime
			}
		}

		if len(docs) == 0 || page*200 >= total {
			break
		}
	}

	if processed > 0 {
		summary.AvgProcessingMS = (totalElapsed / time.Duration(processed)).Milliseconds()
	}
	if enhancedCount > 0 {
		summary.ReferencesAverage = float64(totalRefs) / float64(enhancedCount)
	}

	c.JSON(http.StatusOK, summary)
}
