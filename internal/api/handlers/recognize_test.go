package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tcge/card-intel/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, field string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "card.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(payload)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestReadCardImage(t *testing.T) {
	payload := []byte("image-bytes")

	t.Run("multipart file field", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", payload)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/recognize-card", body)
		c.Request.Header.Set("Content-Type", contentType)

		got, ok := readCardImage(c)
		if !ok || !bytes.Equal(got, payload) {
			t.Fatalf("readCardImage = %q ok=%t", got, ok)
		}
	})

	t.Run("raw body fallback", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/recognize-card", bytes.NewReader(payload))
		c.Request.Header.Set("Content-Type", "image/jpeg")

		got, ok := readCardImage(c)
		if !ok || !bytes.Equal(got, payload) {
			t.Fatalf("readCardImage = %q ok=%t", got, ok)
		}
	})

	t.Run("empty request rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/recognize-card", nil)

		if _, ok := readCardImage(c); ok {
			t.Fatal("empty body should be rejected")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestRecognizeCardCloudDisabled(t *testing.T) {
	h := NewRecognizeHandler(nil, services.NewRemoteClassifierService(""), nil)

	body, contentType := multipartBody(t, "file", []byte("image"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/recognize-card-cloud", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.RecognizeCardCloud(c)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if success, _ := resp["success"].(bool); success {
		t.Error("response should report failure")
	}
}

func TestGetAIStatusDisabled(t *testing.T) {
	h := NewRecognizeHandler(nil, services.NewRemoteClassifierService(""), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/ai-status", nil)

	h.GetAIStatus(c)

	var status services.AIStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Enabled {
		t.Errorf("status = %+v, want disabled", status)
	}
}
