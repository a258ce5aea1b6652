// Package handlers contains the gin HTTP handlers.
package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/importer"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/store"
)

// WorkSet holds the currently configured work list. The import endpoint
// replaces it wholesale; reads get a copy.
type WorkSet struct {
	mu    sync.RWMutex
	works []models.Work
}

func NewWorkSet(works []models.Work) *WorkSet {
	return &WorkSet{works: works}
}

// List returns a copy of the current work list.
func (s *WorkSet) List() []models.Work {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Work, len(s.works))
	copy(out, s.works)
	return out
}

// Replace swaps in a new work list.
func (s *WorkSet) Replace(works []models.Work) {
	s.mu.Lock()
	s.works = works
	s.mu.Unlock()
}

// WorksHandler serves the configured work list and its Excel import.
type WorksHandler struct {
	works          *WorkSet
	issues         *store.IssueDateMapping
	referenceIssue int
	logger         logger.Logger
}

func NewWorksHandler(works *WorkSet, issues *store.IssueDateMapping, referenceIssue int, log logger.Logger) *WorksHandler {
	return &WorksHandler{
		works:          works,
		issues:         issues,
		referenceIssue: referenceIssue,
		logger:         log,
	}
}

// List returns the configured works, the default reference issue and the
// issue-to-date mapping.
func (h *WorksHandler) List(c *gin.Context) {
	mapping, err := h.issues.All()
	if err != nil {
		h.logger.Error("Failed to load issue date mapping",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load issue date mapping"})
		return
	}

	formatted := make(map[string]string, len(mapping))
	for issue, date := range mapping {
		formatted[strconv.Itoa(issue)] = models.FormatTime(date)
	}

	c.JSON(http.StatusOK, gin.H{
		"works":                  h.works.List(),
		"reference_issue_number": h.referenceIssue,
		"issue_date_mapping":     formatted,
	})
}

// Import replaces the work list from an uploaded xlsx file.
func (h *WorksHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not open upload", "details": err.Error()})
		return
	}
	defer file.Close()

	works, importErrors, err := importer.ParseReader(file)
	if err != nil {
		h.logger.Error("Failed to parse work list",
			logger.String("filename", fileHeader.Filename),
			logger.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse work list", "details": err.Error()})
		return
	}
	if len(importErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Work list has invalid rows", "rows": importErrors})
		return
	}

	h.works.Replace(works)

	h.logger.Info("Work list imported",
		logger.String("filename", fileHeader.Filename),
		logger.Int("works", len(works)),
	)

	c.JSON(http.StatusOK, gin.H{"imported": len(works)})
}
