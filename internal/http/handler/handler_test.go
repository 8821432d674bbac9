package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aircheck/internal/model"
	"aircheck/internal/retention"
	"aircheck/internal/service"
	serviceMocks "aircheck/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

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

func TestListRecordings(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Get("/recordings", ListRecordings(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.RecordingListResult{
			Items: []service.RecordingView{{
				Recording:    model.Recording{ID: uuid.New().String(), Title: "morning drive"},
				ExpiryBucket: "30 days",
			}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0, mock.Anything).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.RecordingListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0, mock.Anything).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadRecording(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Post("/recordings", UploadRecording(mockSvc))

	newUploadBody := func(showID string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "show.mp3")
		part.Write([]byte("audio bytes"))
		writer.WriteField("show_id", showID)
		writer.WriteField("title", "morning drive")
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		showID := uuid.New().String()
		body, ct := newUploadBody(showID)

		expectedRec := &model.Recording{ID: uuid.New().String(), ShowID: showID, Title: "morning drive"}
		mockSvc.On("Ingest", mock.Anything, mock.Anything, showID, "morning drive", mock.Anything, mock.Anything, mock.Anything).
			Return(expectedRec, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/recordings", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Recording
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expectedRec.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recordings", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("invalid show id", func(t *testing.T) {
		body, ct := newUploadBody("not-a-uuid")

		req := httptest.NewRequest(http.MethodPost, "/recordings", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_SHOW_ID", res.Error.Code)
	})

	t.Run("unknown show", func(t *testing.T) {
		showID := uuid.New().String()
		body, ct := newUploadBody(showID)

		mockSvc.On("Ingest", mock.Anything, mock.Anything, showID, "morning drive", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrShowNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/recordings", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "SHOW_NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetRecording(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Get("/recordings/:id", GetRecording(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.RecordingView{
			Recording:    model.Recording{ID: id, Title: "late night"},
			Expiry:       retention.Expiry{State: retention.StateActive, DaysRemaining: 3},
			ExpiryBucket: "3 days",
		}
		mockSvc.On("Get", mock.Anything, id, mock.Anything).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.RecordingView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, "3 days", result.ExpiryBucket)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id, mock.Anything).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestDownloadRecording(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Get("/recordings/:id/download", DownloadRecording(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Download", mock.Anything, id).Return("https://minio.local/presigned", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.local/presigned", body["url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Download", mock.Anything, id).Return("", service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSetRecordingTTL(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Put("/recordings/:id/ttl", SetRecordingTTL(mockSvc))

	newReq := func(id, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "/recordings/"+id+"/ttl", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Recording{
			ID:          id,
			TTLOverride: &model.RetentionPolicy{Value: 2, Unit: model.UnitWeeks},
		}
		mockSvc.On("SetOverride", mock.Anything, id, 2, model.UnitWeeks).Return(expected, nil).Once()

		resp, _ := app.Test(newReq(id, `{"value": 2, "unit": "weeks"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Recording
		json.NewDecoder(resp.Body).Decode(&result)
		require.NotNil(t, result.TTLOverride)
		assert.Equal(t, model.UnitWeeks, result.TTLOverride.Unit)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown unit", func(t *testing.T) {
		id := uuid.New().String()
		resp, _ := app.Test(newReq(id, `{"value": 2, "unit": "fortnights"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_TTL", res.Error.Code)
	})

	t.Run("value out of range", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SetOverride", mock.Anything, id, 0, model.UnitDays).Return(nil, service.ErrInvalidTTL).Once()

		resp, _ := app.Test(newReq(id, `{"value": 0, "unit": "days"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_TTL", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("concurrent modification", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SetOverride", mock.Anything, id, 30, model.UnitDays).
			Return(nil, service.ErrConcurrentModification).Once()

		resp, _ := app.Test(newReq(id, `{"value": 30, "unit": "days"}`))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONFLICT", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestClearRecordingTTL(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Delete("/recordings/:id/ttl", ClearRecordingTTL(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Recording{ID: id}
		mockSvc.On("RevertToDefault", mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/recordings/"+id+"/ttl", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Recording
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Nil(t, result.TTLOverride)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("RevertToDefault", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/recordings/"+id+"/ttl", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestExtendRecording(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Post("/recordings/:id/extend", ExtendRecording(mockSvc))

	newReq := func(id, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/recordings/"+id+"/extend", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Recording{ID: id}
		mockSvc.On("Extend", mock.Anything, id, 7).Return(expected, nil).Once()

		resp, _ := app.Test(newReq(id, `{"additional_days": 7}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not extendable", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Extend", mock.Anything, id, 7).Return(nil, service.ErrNotExtendable).Once()

		resp, _ := app.Test(newReq(id, `{"additional_days": 7}`))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_EXTENDABLE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListExpiring(t *testing.T) {
	mockSvc := new(serviceMocks.MockRecordingService)
	app := fiber.New()
	app.Get("/recordings/expiring", ListExpiring(mockSvc))

	t.Run("success with explicit window", func(t *testing.T) {
		items := []service.RecordingView{{
			Recording:    model.Recording{ID: uuid.New().String()},
			Expiry:       retention.Expiry{State: retention.StateActive, DaysRemaining: 2},
			ExpiryBucket: "2 days",
		}}
		mockSvc.On("ExpiringWithin", mock.Anything, 3, mock.Anything).Return(items, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/expiring?days=3", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data  []service.RecordingView `json:"data"`
			Total int                     `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Data, 1)
		assert.Equal(t, 1, body.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("default window", func(t *testing.T) {
		mockSvc.On("ExpiringWithin", mock.Anything, 7, mock.Anything).Return([]service.RecordingView{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/expiring", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid days", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings/expiring?days=soon", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_DAYS", res.Error.Code)
	})
}

func TestRunCleanup(t *testing.T) {
	mockRunner := new(serviceMocks.MockCleanupRunner)
	app := fiber.New()
	app.Post("/cleanup", RunCleanup(mockRunner))

	t.Run("success", func(t *testing.T) {
		res := &service.CleanupResult{Reclaimed: 2, Skipped: 1, Errors: []string{}}
		mockRunner.On("RunCleanup", mock.Anything, mock.Anything).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/cleanup", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.CleanupResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 2, result.Reclaimed)
		assert.Equal(t, 1, result.Skipped)
		mockRunner.AssertExpectations(t)
	})

	t.Run("runner error", func(t *testing.T) {
		mockRunner.On("RunCleanup", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodPost, "/cleanup", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockRunner.AssertExpectations(t)
	})
}

func TestCreateShow(t *testing.T) {
	mockSvc := new(serviceMocks.MockShowService)
	app := fiber.New()
	app.Post("/shows", CreateShow(mockSvc))

	newReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/shows", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("success", func(t *testing.T) {
		expected := &model.Show{
			ID:               uuid.New().String(),
			Name:             "morning drive",
			DefaultRetention: model.RetentionPolicy{Value: 30, Unit: model.UnitDays},
		}
		mockSvc.On("Create", mock.Anything, "morning drive", 30, model.UnitDays).Return(expected, nil).Once()

		resp, _ := app.Test(newReq(`{"name": "morning drive", "retention_value": 30, "retention_unit": "days"}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Show
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		resp, _ := app.Test(newReq(`{"retention_value": 30, "retention_unit": "days"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NAME_REQUIRED", res.Error.Code)
	})

	t.Run("unknown unit", func(t *testing.T) {
		resp, _ := app.Test(newReq(`{"name": "x", "retention_value": 30, "retention_unit": "decades"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_TTL", res.Error.Code)
	})
}

func TestGetShow(t *testing.T) {
	mockSvc := new(serviceMocks.MockShowService)
	app := fiber.New()
	app.Get("/shows/:id", GetShow(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Show{ID: id, Name: "late night"}
		mockSvc.On("Get", mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/shows/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrShowNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/shows/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "SHOW_NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockRec := new(serviceMocks.MockRecordingService)
	mockShow := new(serviceMocks.MockShowService)
	mockRunner := new(serviceMocks.MockCleanupRunner)
	RegisterRoutes(app, nil, mockRec, mockShow, mockRunner)

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

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("expiring route wins over id capture", func(t *testing.T) {
		mockRec.On("ExpiringWithin", mock.Anything, 7, mock.Anything).Return([]service.RecordingView{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/recordings/expiring", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockRec.AssertExpectations(t)
	})
}
