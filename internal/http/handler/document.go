package handler

import (
	"context"
	"errors"
	"mime"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"liftdocs/internal/model"
	"liftdocs/internal/service"
	"liftdocs/internal/storage"
)

// Pinger reports whether the metadata backend is reachable. The active
// repository backend supplies its own implementation (Mongo client ping or
// *sql.DB ping).
type Pinger func(ctx context.Context) error

// Root returns the service banner.
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Elevator Docs API running"})
	}
}

// HealthCheck reports readiness: healthy only when the metadata backend
// answers a ping within the deadline.
func HealthCheck(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe reports OK for as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Metrics exposes the given Prometheus registry in the text exposition format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}

// UploadDocument accepts a multipart form (brand, title, description, tags,
// file) and stores the payload and its metadata record.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		in := service.UploadInput{
			Draft: model.DocumentDraft{
				Brand:       c.FormValue("brand"),
				Title:       c.FormValue("title"),
				Description: c.FormValue("description"),
				Tags:        c.FormValue("tags"),
			},
			File:        f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}

		doc, err := svc.Upload(c.UserContext(), in)
		if err != nil {
			var vErr *model.ValidationError
			var wErr *storage.WriteError
			switch {
			case errors.As(err, &vErr):
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
			case errors.As(err, &wErr):
				return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "could not store file")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id":      doc.ID.Hex(),
			"message": "Uploaded",
		})
	}
}

// SearchDocuments lists documents matching the optional q/brand constraints.
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := service.SearchQuery{
			Term:  c.Query("q"),
			Brand: c.Query("brand"),
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			}
			query.Limit = n
		}

		views, err := svc.Search(c.UserContext(), query)
		if err != nil {
			if errors.Is(err, service.ErrInvalidLimit) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"items": views})
	}
}

// DownloadDocument streams the stored bytes with an attachment disposition.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return serveBlob(svc, "attachment")
}

// ViewDocument streams the stored bytes for inline display.
func ViewDocument(svc service.DocumentService) fiber.Handler {
	return serveBlob(svc, "inline")
}

// serveBlob is the shared retrieval handler; download and view differ only in
// the Content-Disposition type.
func serveBlob(svc service.DocumentService, disposition string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := model.ParseID(c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		stream, err := svc.Open(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		doc := stream.Document
		name := doc.OriginalName
		if name == "" {
			name = doc.StoredName
		}
		contentType := doc.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": name}))

		// fasthttp closes the body stream once the response is written.
		if stream.Size > 0 {
			return c.SendStream(stream.Body, int(stream.Size))
		}
		return c.SendStream(stream.Body)
	}
}
