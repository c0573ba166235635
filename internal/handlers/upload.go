package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/sheets"
)

// maxUploadBytes bounds accepted file uploads.
const maxUploadBytes = 50 * 1024 * 1024

var documentUploadExts = map[string]bool{".pdf": true, ".docx": true}
var sheetUploadExts = map[string]bool{".xlsx": true, ".csv": true}

// UploadHandler serves the document and sheet upload endpoints.
type UploadHandler struct {
	sources    *repository.SourceRepository
	items      *repository.ItemRepository
	storageDir string
	logger     logger.Logger
}

// NewUploadHandler creates an UploadHandler storing files under storageDir.
func NewUploadHandler(
	sources *repository.SourceRepository,
	items *repository.ItemRepository,
	storageDir string,
	log logger.Logger,
) *UploadHandler {
	return &UploadHandler{
		sources:    sources,
		items:      items,
		storageDir: storageDir,
		logger:     log,
	}
}

// CreateDocument accepts a PDF or DOCX upload, stores it, and queues a
// document source with a single item representing the whole file.
func (h *UploadHandler) CreateDocument(c *gin.Context) {
	h.createUpload(c, models.SourceTypeDocument, documentUploadExts,
		"Unsupported file type, expected .pdf or .docx")
}

// CreateSheet accepts an XLSX or CSV upload, stores it, and queues a sheet
// source with one item per worksheet (or one item for the CSV).
func (h *UploadHandler) CreateSheet(c *gin.Context) {
	h.createUpload(c, models.SourceTypeSheet, sheetUploadExts,
		"Unsupported file type, expected .xlsx or .csv")
}

func (h *UploadHandler) createUpload(c *gin.Context, sourceType models.SourceType, allowedExts map[string]bool, extError string) {
	userID := c.PostForm("user_id")
	name := c.PostForm("name")
	if userID == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and name are required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "details": err.Error()})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": extError})
		return
	}

	storedPath := filepath.Join(h.storageDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fileHeader, storedPath); err != nil {
		h.logger.Error("failed to store upload",
			logger.String("filename", fileHeader.Filename),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	items, err := uploadItems(sourceType, storedPath, fileHeader.Filename, ext)
	if err != nil {
		_ = os.Remove(storedPath)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file", "details": err.Error()})
		return
	}

	source := &models.Source{
		UserID:           userID,
		Name:             name,
		SourceType:       sourceType,
		SourceContext:    c.PostForm("source_context"),
		FilePath:         storedPath,
		OriginalFilename: fileHeader.Filename,
	}
	if err := h.sources.Create(c.Request.Context(), source); err != nil {
		_ = os.Remove(storedPath)
		h.logger.Error("failed to create source",
			logger.String("source_name", name),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		return
	}

	for i := range items {
		items[i].SourceID = source.ID
	}
	if err := h.items.BulkCreate(c.Request.Context(), items); err != nil {
		h.logger.Error("failed to create items",
			logger.String("source_id", source.ID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file items"})
		return
	}
	if err := h.sources.SetTotals(c.Request.Context(), source.ID); err != nil {
		h.logger.Error("failed to update totals",
			logger.String("source_id", source.ID),
			logger.Error(err))
	}

	// Uploads skip the selection step and queue immediately.
	if err := h.sources.Queue(c.Request.Context(), source.ID); err != nil {
		h.logger.Error("failed to queue source",
			logger.String("source_id", source.ID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue source"})
		return
	}

	h.logger.Info("upload source created",
		logger.String("source_id", source.ID),
		logger.String("source_type", string(sourceType)),
		logger.String("filename", fileHeader.Filename),
		logger.Int("items", len(items)))

	created, err := h.sources.GetByID(c.Request.Context(), source.ID)
	if err != nil {
		c.JSON(http.StatusCreated, source)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// uploadItems builds the pre-selected items representing an uploaded file:
// one per worksheet for workbooks, one for everything else.
func uploadItems(sourceType models.SourceType, storedPath, originalName, ext string) ([]models.Item, error) {
	if sourceType == models.SourceTypeDocument {
		return []models.Item{{
			URL:      originalName,
			Category: models.CategoryDocument,
			Selected: true,
		}}, nil
	}

	if ext == ".csv" {
		preview, err := sheets.PreviewCSV(storedPath)
		if err != nil {
			return nil, err
		}
		return []models.Item{{
			URL:      originalName,
			Category: models.CategoryCSV,
			Selected: true,
			Preview:  preview,
		}}, nil
	}

	worksheets, err := sheets.PreviewXLSX(storedPath)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(worksheets))
	for _, ws := range worksheets {
		items = append(items, models.Item{
			URL:      ws.Name,
			Category: models.CategorySheet,
			Selected: true,
			Preview:  ws.Preview,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return items, nil
}
