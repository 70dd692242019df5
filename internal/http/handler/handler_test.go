package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"liftdocs/internal/model"
	"liftdocs/internal/service"
	serviceMocks "liftdocs/internal/service/mocks"
	"liftdocs/internal/storage"
)

// multipartUpload builds a form body with the given fields plus one file part.
func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRoot(t *testing.T) {
	app := fiber.New()
	app.Get("/", Root())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "Elevator Docs API running", body["message"])
}

func TestHealthCheck(t *testing.T) {
	pingErr := error(nil)
	app := fiber.New()
	app.Get("/health", HealthCheck(func(ctx context.Context) error { return pingErr }))

	t.Run("healthy", func(t *testing.T) {
		pingErr = nil

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		pingErr = errors.New("db error")

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/api/documents", UploadDocument(mockSvc))

	fields := map[string]string{
		"brand":       "Otis",
		"title":       "Install Manual",
		"description": "rope drive",
		"tags":        "manual,install",
	}

	t.Run("success", func(t *testing.T) {
		body, contentType := multipartUpload(t, fields, "manual.pdf", []byte("hello world"))

		expectedDoc := &model.Document{ID: model.NewID(), StoredName: "x.pdf"}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Filename == "manual.pdf" &&
				in.Draft.Brand == "Otis" &&
				in.Draft.Title == "Install Manual" &&
				in.Draft.Description == "rope drive" &&
				in.Draft.Tags == "manual,install" &&
				in.File != nil
		})).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expectedDoc.ID.Hex(), result.ID)
		assert.Equal(t, "Uploaded", result.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		body, contentType := multipartUpload(t, fields, "", nil)

		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		body, contentType := multipartUpload(t, map[string]string{"title": "Manual"}, "manual.pdf", []byte("x"))

		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, &model.ValidationError{Field: "brand"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Equal(t, "brand is required", res.Error.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		body, contentType := multipartUpload(t, fields, "manual.pdf", []byte("x"))

		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, &storage.WriteError{Name: "abc.pdf", Err: errors.New("disk full")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "STORAGE_ERROR", res.Error.Code)
		// The response must not echo internal paths or causes.
		assert.NotContains(t, res.Error.Message, "disk full")
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, contentType := multipartUpload(t, fields, "manual.pdf", []byte("x"))

		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, errors.New("upload failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestSearchDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents", SearchDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		want := service.SearchQuery{Term: "manual", Brand: "Otis", Limit: 25}
		views := []model.DocumentView{{ID: model.NewID().Hex(), Brand: "Otis", Title: "Manual A"}}
		mockSvc.On("Search", mock.Anything, want).Return(views, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents?q=manual&brand=Otis&limit=25", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Items []model.DocumentView `json:"items"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Manual A", result.Items[0].Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no params leaves the limit to the service default", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, service.SearchQuery{}).
			Return([]model.DocumentView{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Items []model.DocumentView `json:"items"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Empty(t, result.Items)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, limit := range []string{"abc", "0", "-5", "1.5"} {
			req := httptest.NewRequest(http.MethodGet, "/api/documents?limit="+limit, nil)
			resp, _ := app.Test(req)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
			var res errorPayload
			json.NewDecoder(resp.Body).Decode(&res)
			assert.Equal(t, "INVALID_LIMIT", res.Error.Code)
		}
		// None of those requests may reach the service.
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, mock.Anything).
			Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadDocument(t *testing.T) {
	newApp := func(mockSvc *serviceMocks.MockDocumentService) *fiber.App {
		app := fiber.New()
		app.Get("/api/documents/:id/download", DownloadDocument(mockSvc))
		return app
	}

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		id := model.NewID()
		doc := &model.Document{
			ID:           id,
			ContentType:  "application/pdf",
			StoredName:   id.Hex() + ".pdf",
			OriginalName: "manual.pdf",
		}
		mockSvc.On("Open", mock.Anything, id).Return(&service.DocumentStream{
			Document: doc,
			Body:     io.NopCloser(strings.NewReader("%PDF-1.7")),
			Size:     8,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id.Hex()+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=manual.pdf", resp.Header.Get("Content-Disposition"))

		got, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(got))
		mockSvc.AssertExpectations(t)
	})

	t.Run("falls back to stored name and octet-stream", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		id := model.NewID()
		doc := &model.Document{ID: id, StoredName: id.Hex() + ".bin"}
		mockSvc.On("Open", mock.Anything, id).Return(&service.DocumentStream{
			Document: doc,
			Body:     io.NopCloser(strings.NewReader("x")),
			Size:     1,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id.Hex()+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "filename="+id.Hex()+".bin")
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/documents/not-a-hex-id/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		id := model.NewID()
		mockSvc.On("Open", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id.Hex()+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newApp(mockSvc)

		id := model.NewID()
		mockSvc.On("Open", mock.Anything, id).Return(nil, errors.New("io error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id.Hex()+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestViewDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id/view", ViewDocument(mockSvc))

	id := model.NewID()
	doc := &model.Document{
		ID:           id,
		ContentType:  "image/png",
		StoredName:   id.Hex() + ".png",
		OriginalName: "diagram.png",
	}
	mockSvc.On("Open", mock.Anything, id).Return(&service.DocumentStream{
		Document: doc,
		Body:     io.NopCloser(strings.NewReader("PNG")),
		Size:     3,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id.Hex()+"/view", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline; filename=diagram.png", resp.Header.Get("Content-Disposition"))
	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	reg := prometheus.NewRegistry()
	RegisterRoutes(app, mockSvc, func(ctx context.Context) error { return nil }, reg)

	t.Run("root banner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("docs page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/docs", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "swagger-ui")
	})

	t.Run("metrics exposed", func(t *testing.T) {
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "test counter"})
		reg.MustRegister(counter)
		counter.Inc()

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "probe_total 1")
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		// Fiber returns 405 by default if route exists but method doesn't match
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
