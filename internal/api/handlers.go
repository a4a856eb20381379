package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/feedforge/feedforge_core/internal/cache"
	"github.com/feedforge/feedforge_core/internal/db"
	"github.com/feedforge/feedforge_core/internal/gtfs"
	"github.com/feedforge/feedforge_core/internal/logger"
	"github.com/feedforge/feedforge_core/internal/middleware"
	"github.com/feedforge/feedforge_core/internal/validator"
)

// Handlers carries the feed endpoints' dependencies. Everything is passed
// in explicitly; no handler reaches for global state.
type Handlers struct {
	store     gtfs.Store
	importer  *gtfs.Importer
	validator *validator.Client
	workDir   string
	log       logger.Logger
}

func NewHandlers(store gtfs.Store, importer *gtfs.Importer, vc *validator.Client, workDir string, log logger.Logger) *Handlers {
	return &Handlers{
		store:     store,
		importer:  importer,
		validator: vc,
		workDir:   workDir,
		log:       log,
	}
}

// ImportFeed handles POST /v1/projects/:id/import. Accepts one uploaded
// .zip feed and answers with the per-table import manifest.
func (h *Handlers) ImportFeed(c *fiber.Ctx) error {
	ownerID := middleware.Owner(c)
	if ownerID == "" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "import requires an authenticated owner",
		})
	}
	projectID := c.Params("id")

	upload, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "missing feed upload: expected multipart field 'file'",
		})
	}
	if !strings.EqualFold(filepath.Ext(upload.Filename), ".zip") {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "feed upload must be a .zip file",
		})
	}

	// Spool the upload next to the extraction scratch space.
	spooled := filepath.Join(h.workDir, "feed-upload-"+uuid.NewString()+".zip")
	if err := c.SaveFile(upload, spooled); err != nil {
		h.log.Error("failed to spool upload", "error", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "could not store the uploaded feed",
		})
	}
	defer os.Remove(spooled)

	summary, err := h.importer.Run(c.Context(), ownerID, projectID, spooled, upload.Filename)
	if err != nil {
		status := 500
		switch {
		case errors.Is(err, gtfs.ErrInvalidArchive):
			status = 400
		case errors.Is(err, gtfs.ErrImportInProgress):
			status = 409
		case errors.Is(err, gtfs.ErrMissingImportContext):
			status = 401
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	message := fmt.Sprintf("imported %d rows into project %s", summary.RowsLoaded(), projectID)
	if !summary.Succeeded() {
		message = "import finished with table failures, see manifest"
	}

	return c.JSON(fiber.Map{
		"success":  summary.Succeeded(),
		"message":  message,
		"batch_id": summary.BatchID,
		"tables":   summary.Tables,
	})
}

// ExportFeed handles GET /v1/projects/:id/export, streaming the project's
// tables as a GTFS ZIP download.
func (h *Handlers) ExportFeed(c *fiber.Ctx) error {
	ownerID := middleware.Owner(c)
	if ownerID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "export requires an authenticated owner"})
	}
	projectID := c.Params("id")

	name, data, err := gtfs.Export(c.Context(), h.store, ownerID, projectID)
	if err != nil {
		if errors.Is(err, gtfs.ErrProjectNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		h.log.Error("export failed", "project_id", projectID, "error", err)
		return c.Status(500).JSON(fiber.Map{"error": "export failed"})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name+".zip"))
	return c.Send(data)
}

// ValidateFeed handles POST /v1/projects/:id/validate: re-exports the
// project and forwards the feed to the external validator, returning its
// report unmodified. Reports are cached by feed content hash.
func (h *Handlers) ValidateFeed(c *fiber.Ctx) error {
	ownerID := middleware.Owner(c)
	if ownerID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "validation requires an authenticated owner"})
	}
	projectID := c.Params("id")

	name, data, err := gtfs.Export(c.Context(), h.store, ownerID, projectID)
	if err != nil {
		if errors.Is(err, gtfs.ErrProjectNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		h.log.Error("export for validation failed", "project_id", projectID, "error", err)
		return c.Status(500).JSON(fiber.Map{"error": "export failed"})
	}

	ctx := c.Context()
	key := cache.ReportKey(data)
	if report, err := cache.GetValidationReport(ctx, key); err == nil && report != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(report)
	}

	report, err := h.validator.Validate(ctx, name+".zip", data)
	if err != nil {
		if errors.Is(err, validator.ErrNotConfigured) {
			return c.Status(503).JSON(fiber.Map{"error": "no validator service configured"})
		}
		h.log.Error("validation failed", "project_id", projectID, "error", err)
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}

	if err := cache.SetValidationReport(ctx, key, report); err != nil {
		h.log.Warn("failed to cache validation report", "error", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(report)
}

// Health handles the /health endpoint
func Health(c *fiber.Ctx) error {
	ctx := c.Context()

	dbErr := db.HealthCheck(ctx)
	dbStatus := "ok"
	if dbErr != nil {
		dbStatus = dbErr.Error()
	}

	redisErr := cache.HealthCheck(ctx)
	redisStatus := "ok"
	if redisErr != nil {
		redisStatus = redisErr.Error()
	}

	status := "healthy"
	httpStatus := 200
	if dbErr != nil || redisErr != nil {
		status = "unhealthy"
		httpStatus = 503
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
