package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/analysis"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/events"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/store"
)

// AnalysisHandler exposes run control, progress and persistence.
type AnalysisHandler struct {
	runner         *analysis.Runner
	store          *store.SummaryStore
	works          *WorkSet
	referenceIssue int
	events         *events.Publisher
	logger         logger.Logger
}

func NewAnalysisHandler(
	runner *analysis.Runner,
	summaryStore *store.SummaryStore,
	works *WorkSet,
	referenceIssue int,
	publisher *events.Publisher,
	log logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		runner:         runner,
		store:          summaryStore,
		works:          works,
		referenceIssue: referenceIssue,
		events:         publisher,
		logger:         log,
	}
}

type startRequest struct {
	Works                []models.Work       `json:"works"`
	ReferenceIssueNumber *int                `json:"reference_issue_number"`
	TrendWords           []models.TrendWord  `json:"trend_words"`
	OriginalQueries      map[string][]string `json:"original_queries"`
}

type saveRequest struct {
	IssueNumber *int               `json:"issue_number"`
	TrendWords  []models.TrendWord `json:"trend_words"`
}

// Start kicks off a background analysis run.
func (h *AnalysisHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	works := req.Works
	if len(works) == 0 {
		works = h.works.List()
	}

	issue := h.referenceIssue
	if req.ReferenceIssueNumber != nil {
		issue = *req.ReferenceIssueNumber
	}

	runID, err := h.runner.Start(analysis.StartRequest{
		Works:           works,
		ReferenceIssue:  issue,
		TrendWords:      req.TrendWords,
		OriginalQueries: req.OriginalQueries,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "Analysis already running"})
			return
		}
		h.logger.Error("Failed to start analysis",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start analysis"})
		return
	}

	h.logger.Info("Analysis started",
		logger.String("run_id", runID),
		logger.Int("issue", issue),
		logger.Int("works", len(works)),
	)

	c.JSON(http.StatusOK, gin.H{"message": "Analysis started", "run_id": runID})
}

// Progress returns the current run state snapshot.
func (h *AnalysisHandler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.Progress())
}

// Results returns the completed result set.
func (h *AnalysisHandler) Results(c *gin.Context) {
	results, ok := h.runner.Results()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Save merges the last completed results into the persisted tables.
func (h *AnalysisHandler) Save(c *gin.Context) {
	results, ok := h.runner.Results()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results available"})
		return
	}

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	issue := h.referenceIssue
	if req.IssueNumber != nil {
		issue = *req.IssueNumber
	}

	report, err := h.store.SaveResults(results, issue, req.TrendWords)
	if err != nil {
		h.logger.Error("Failed to save analysis results",
			logger.Int("issue", issue),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save results"})
		return
	}

	h.events.PublishAsync(events.Event{
		EventType: events.ResultsSaved,
		Payload: map[string]any{
			"issue_number":      issue,
			"saved_count":       report.SavedCount,
			"trend_saved_count": report.TrendSavedCount,
		},
	})

	message := fmt.Sprintf("Saved %d work rows", report.SavedCount)
	if report.TrendSavedCount > 0 {
		message = fmt.Sprintf("%s, %d trend rows", message, report.TrendSavedCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           message,
		"issue_number":      issue,
		"saved_count":       report.SavedCount,
		"trend_saved_count": report.TrendSavedCount,
	})
}

// Summary returns the persisted work-summary table.
func (h *AnalysisHandler) Summary(c *gin.Context) {
	header, rows, err := h.store.LoadWorkSummary()
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No saved data"})
			return
		}
		h.logger.Error("Failed to load work summary",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load saved data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": header, "data": rowsAsRecords(header, rows)})
}

// Trends returns the persisted trend-summary table.
func (h *AnalysisHandler) Trends(c *gin.Context) {
	header, rows, err := h.store.LoadTrendSummary()
	if err != nil {
		h.logger.Error("Failed to load trend summary",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trend data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": header, "data": rowsAsRecords(header, rows)})
}

// rowsAsRecords zips each row with the header into a column-keyed record.
func rowsAsRecords(header []string, rows [][]string) []map[string]string {
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}
