// Package handlers implements the HTTP API: source creation (website
// registration and file uploads), selection, queueing, and progress polling.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mirahq/ingest-manager/internal/discover"
	"github.com/mirahq/ingest-manager/internal/events"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/urlsafety"
)

const noURLsDiscoveredCause = "No URLs could be discovered for this domain."

// Discoverer finds candidate page URLs under a domain.
type Discoverer interface {
	DiscoverURLs(ctx context.Context, domainURL string) ([]string, error)
}

// SourceHandler serves the source endpoints.
type SourceHandler struct {
	sources    *repository.SourceRepository
	items      *repository.ItemRepository
	tags       *repository.TagRepository
	gate       *urlsafety.Gate
	discoverer Discoverer
	publisher  *events.Publisher
	logger     logger.Logger

	discoveryTimeout time.Duration
}

// NewSourceHandler creates a SourceHandler.
func NewSourceHandler(
	sources *repository.SourceRepository,
	items *repository.ItemRepository,
	tags *repository.TagRepository,
	gate *urlsafety.Gate,
	discoverer Discoverer,
	publisher *events.Publisher,
	log logger.Logger,
	discoveryTimeout time.Duration,
) *SourceHandler {
	return &SourceHandler{
		sources:          sources,
		items:            items,
		tags:             tags,
		gate:             gate,
		discoverer:       discoverer,
		publisher:        publisher,
		logger:           log,
		discoveryTimeout: discoveryTimeout,
	}
}

type createWebsiteRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	DomainURL     string `json:"domain_url" binding:"required"`
	SourceContext string `json:"source_context"`
}

// CreateWebsite registers a website source: it validates the domain against
// the safety gate, creates a draft source, and fills it with discovered page
// items awaiting selection.
func (h *SourceHandler) CreateWebsite(c *gin.Context) {
	var req createWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	normalized, err := h.gate.NormalizeDomain(req.DomainURL)
	if err != nil {
		h.logger.Debug("rejected domain",
			logger.String("domain_url", req.DomainURL),
			logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or unsafe domain", "details": err.Error()})
		return
	}

	source := &models.Source{
		UserID:        req.UserID,
		Name:          req.Name,
		SourceType:    models.SourceTypeWebsite,
		DomainURL:     normalized,
		SourceContext: req.SourceContext,
	}
	if err := h.sources.Create(c.Request.Context(), source); err != nil {
		h.logger.Error("failed to create source",
			logger.String("source_name", req.Name),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.discoveryTimeout)
	defer cancel()

	urls, err := h.discoverer.DiscoverURLs(ctx, normalized)
	if err != nil || len(urls) == 0 {
		if err != nil {
			h.logger.Warn("discovery failed",
				logger.String("source_id", source.ID),
				logger.String("domain_url", normalized),
				logger.Error(err))
		}
		if finErr := h.sources.Finalize(c.Request.Context(), source.ID,
			models.SourceStatusFailed, noURLsDiscoveredCause); finErr != nil {
			h.logger.Error("failed to mark source failed",
				logger.String("source_id", source.ID),
				logger.Error(finErr))
		}
		source.Status = models.SourceStatusFailed
		source.ErrorMessage = noURLsDiscoveredCause
		c.JSON(http.StatusCreated, source)
		return
	}

	items := make([]models.Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, models.Item{
			SourceID: source.ID,
			URL:      u,
			Category: discover.Categorize(u),
		})
	}
	if err := h.items.BulkCreate(c.Request.Context(), items); err != nil {
		h.logger.Error("failed to create items",
			logger.String("source_id", source.ID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store discovered pages"})
		return
	}
	if err := h.sources.SetTotals(c.Request.Context(), source.ID); err != nil {
		h.logger.Error("failed to update totals",
			logger.String("source_id", source.ID),
			logger.Error(err))
	}

	h.logger.Info("website source created",
		logger.String("source_id", source.ID),
		logger.String("domain_url", normalized),
		logger.Int("discovered_urls", len(urls)))

	created, err := h.sources.GetByID(c.Request.Context(), source.ID)
	if err != nil {
		c.JSON(http.StatusCreated, source)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List returns the caller's sources.
func (h *SourceHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	sources, err := h.sources.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list sources", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

// GetByID returns one source.
func (h *SourceHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	source, err := h.sources.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, source)
}

// Delete removes a source and, via cascade, its items.
func (h *SourceHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.sources.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		h.logger.Error("failed to delete source",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source"})
		return
	}

	h.logger.Info("source deleted", logger.String("source_id", id))
	c.JSON(http.StatusNoContent, nil)
}

// ListItems returns all items of a source, selection state included.
func (h *SourceHandler) ListItems(c *gin.Context) {
	id := c.Param("id")

	items, err := h.items.ListBySource(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list items",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type updateSelectionRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required"`
}

// UpdateSelection replaces the source's selected item set.
func (h *SourceHandler) UpdateSelection(c *gin.Context) {
	id := c.Param("id")

	var req updateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.items.UpdateSelection(c.Request.Context(), id, req.ItemIDs); err != nil {
		h.logger.Error("failed to update selection",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update selection"})
		return
	}
	if err := h.sources.SetTotals(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to update totals",
			logger.String("source_id", id),
			logger.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"selected": len(req.ItemIDs)})
}

// Queue hands a source to the worker loop.
func (h *SourceHandler) Queue(c *gin.Context) {
	id := c.Param("id")

	source, err := h.sources.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	if err := h.sources.Queue(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrSourceNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "Source cannot be queued in its current state"})
			return
		}
		h.logger.Error("failed to queue source",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue source"})
		return
	}

	h.publisher.PublishAsync(events.SourceEvent{
		Type:       events.TypeSourceQueued,
		SourceID:   id,
		UserID:     source.UserID,
		SourceType: string(source.SourceType),
	})

	h.logger.Info("source queued", logger.String("source_id", id))
	c.JSON(http.StatusAccepted, gin.H{"status": string(models.SourceStatusPending)})
}

// Progress returns the polling snapshot for a source.
func (h *SourceHandler) Progress(c *gin.Context) {
	id := c.Param("id")

	progress, err := h.sources.GetProgress(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		h.logger.Error("failed to read progress",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ListTags returns the tags attached to a source.
func (h *SourceHandler) ListTags(c *gin.Context) {
	id := c.Param("id")

	tags, err := h.tags.ListForSource(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list tags",
			logger.String("source_id", id),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}
