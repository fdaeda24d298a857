package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorAttachesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	BadRequest(c, "bad")

	if w.Code != http.StatusOK {
		t.Fatalf("envelope errors keep http 200, got %d", w.Code)
	}
	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body.StatusCode != CodeBadRequest || body.Msg != "bad" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.Data["request_id"] != "req-1" {
		t.Fatalf("request id missing: %+v", body.Data)
	}
}

func TestRawResponsesUseHTTPStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Fail(c, http.StatusNotFound, "media not found")
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Fatalf("fail should abort the chain")
	}
	var failBody map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &failBody); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if failBody["error"] != "media not found" {
		t.Fatalf("unexpected error body: %v", failBody)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Items(c, http.StatusOK, []string{"a", "b"})
	var itemsBody map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &itemsBody); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if len(itemsBody["items"]) != 2 {
		t.Fatalf("unexpected items body: %v", itemsBody)
	}
}
