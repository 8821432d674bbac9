package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aircheck/internal/model"
	"aircheck/internal/service"
)

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListRecordings lists recordings with limit & offset, each carrying its
// expiry bucket evaluated at request time.
func ListRecordings(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, errResp := pageParams(c)
		if errResp != nil {
			return errResp
		}

		res, err := svc.List(c.UserContext(), limit, offset, time.Now().UTC())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadRecording ingests captured audio (multipart/form-data, field name:
// file) together with its show_id, title and recorded_at form fields.
func UploadRecording(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		showID := c.FormValue("show_id")
		if _, err := uuid.Parse(showID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SHOW_ID", "invalid show_id format")
		}
		title := c.FormValue("title")
		if title == "" {
			title = fh.Filename
		}

		recordedAt := time.Now().UTC()
		if v := c.FormValue("recorded_at"); v != "" {
			recordedAt, err = time.Parse(time.RFC3339, v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_RECORDED_AT", "recorded_at must be RFC3339")
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		rec, err := svc.Ingest(c.UserContext(), f, showID, title, ct, fh.Size, recordedAt)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GetRecording returns one recording with its expiry bucket.
func GetRecording(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.Get(c.UserContext(), id, time.Now().UTC())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// DownloadRecording returns a short-lived presigned URL for the audio blob.
func DownloadRecording(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

type setTTLRequest struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// SetRecordingTTL stores a per-recording retention override.
func SetRecordingTTL(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req setTTLRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		unit, err := model.ParseTTLUnit(req.Unit)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TTL", "invalid retention value or unit")
		}

		rec, err := svc.SetOverride(c.UserContext(), id, req.Value, unit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// ClearRecordingTTL removes the override so the show default applies again.
func ClearRecordingTTL(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.RevertToDefault(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

type extendRequest struct {
	AdditionalDays int `json:"additional_days"`
}

// ExtendRecording pushes the expiry out by a number of days without
// changing the stored policy.
func ExtendRecording(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req extendRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		rec, err := svc.Extend(c.UserContext(), id, req.AdditionalDays)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// ListExpiring lists active recordings whose remaining lifetime is at most
// ?days (default 7), soonest first.
func ListExpiring(svc service.RecordingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		daysStr := c.Query("days", "7")
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DAYS", "invalid days")
		}

		items, err := svc.ExpiringWithin(c.UserContext(), days, time.Now().UTC())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// RunCleanup triggers one on-demand cleanup pass over expired recordings.
func RunCleanup(runner service.CleanupRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := runner.RunCleanup(c.UserContext(), time.Now().UTC())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

type createShowRequest struct {
	Name           string `json:"name"`
	RetentionValue int    `json:"retention_value"`
	RetentionUnit  string `json:"retention_unit"`
}

// CreateShow persists a show with its default retention policy.
func CreateShow(svc service.ShowService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShowRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if req.Name == "" {
			return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "name is required")
		}
		unit, err := model.ParseTTLUnit(req.RetentionUnit)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TTL", "invalid retention value or unit")
		}

		show, err := svc.Create(c.UserContext(), req.Name, req.RetentionValue, unit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(show)
	}
}

// GetShow returns one show by ID.
func GetShow(svc service.ShowService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		show, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(show)
	}
}

// ListShows lists shows with limit & offset.
func ListShows(svc service.ShowService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, errResp := pageParams(c)
		if errResp != nil {
			return errResp
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

func pageParams(c *fiber.Ctx) (limit, offset int, errResp error) {
	limitStr := c.Query("limit", "10")
	offsetStr := c.Query("offset", "0")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, 0, writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return 0, 0, writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, nil
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, recSvc service.RecordingService, showSvc service.ShowService, cleanup service.CleanupRunner) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// /recordings/expiring must precede /recordings/:id
	app.Get("/recordings/expiring", ListExpiring(recSvc))
	app.Get("/recordings", ListRecordings(recSvc))
	app.Post("/recordings", UploadRecording(recSvc))
	app.Get("/recordings/:id", GetRecording(recSvc))
	app.Get("/recordings/:id/download", DownloadRecording(recSvc))
	app.Put("/recordings/:id/ttl", SetRecordingTTL(recSvc))
	app.Delete("/recordings/:id/ttl", ClearRecordingTTL(recSvc))
	app.Post("/recordings/:id/extend", ExtendRecording(recSvc))

	app.Post("/shows", CreateShow(showSvc))
	app.Get("/shows", ListShows(showSvc))
	app.Get("/shows/:id", GetShow(showSvc))

	app.Post("/cleanup", RunCleanup(cleanup))
}
