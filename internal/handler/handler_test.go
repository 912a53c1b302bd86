package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestRespondServiceErrorMapsStatus(t *testing.T) {
	api := NewAPI(setupHandlerTestDB(t), Options{Logger: logger.Nop()})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: fmt.Errorf("%w: email", service.ErrInvalidInput), want: http.StatusBadRequest},
		{name: "image too large", err: service.ErrImageTooLarge, want: http.StatusBadRequest},
		{name: "unprocessable image", err: service.ErrUnprocessableImage, want: http.StatusBadRequest},
		{name: "duplicate email", err: service.ErrDuplicateEmail, want: http.StatusConflict},
		{name: "duplicate transaction", err: service.ErrDuplicateTransaction, want: http.StatusConflict},
		{name: "member not found", err: service.ErrMemberNotFound, want: http.StatusNotFound},
		{name: "content not found", err: service.ErrContentNotFound, want: http.StatusNotFound},
		{name: "infrastructure", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/")
			api.respondServiceError(c, tt.err)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected json body: %v", err)
			}
			if body["error"] == "" || body["error"] == nil {
				t.Fatal("expected error message")
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(w.Body.String(), "connection refused") {
				t.Fatal("internal error details should not leak")
			}
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		cookie   string
		header   string
		want     string
		persists bool
	}{
		{name: "default", target: "/", want: "es"},
		{name: "query override", target: "/?lang=en", want: "en", persists: true},
		{name: "cookie", target: "/", cookie: "en", want: "en"},
		{name: "accept language", target: "/", header: "en-GB,en;q=0.9", want: "en"},
		{name: "query beats cookie", target: "/?lang=es", cookie: "en", want: "es", persists: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, tt.target)
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: languageCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				c.Request.Header.Set("Accept-Language", tt.header)
			}
			got, persist := resolveLanguage(c)
			if got != tt.want || persist != tt.persists {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.want, tt.persists, got, persist)
			}
		})
	}
}

func TestMessageFollowsRequestLanguage(t *testing.T) {
	api := &API{log: logger.Nop()}

	c, _ := newTestContext(http.MethodGet, "/")
	if got := api.message(c, msgMemberNotFound); got != "Socio no encontrado" {
		t.Fatalf("expected Spanish message, got %q", got)
	}

	c, _ = newTestContext(http.MethodGet, "/?lang=en")
	if got := api.message(c, msgMemberNotFound); got != "Member not found" {
		t.Fatalf("expected English message, got %q", got)
	}
}

func TestEveryMessageHasBothLanguages(t *testing.T) {
	for key := msgInvalidID; key <= msgInternal; key++ {
		text, ok := messages[key]
		if !ok || text[0] == "" || text[1] == "" {
			t.Fatalf("message %d is missing a translation", key)
		}
	}
}

func TestParseTimeQuery(t *testing.T) {
	api := &API{log: logger.Nop()}

	c, _ := newTestContext(http.MethodGet, "/?to=2024-02-01")
	to, ok := api.parseTimeQuery(c, "to", true)
	if !ok || to == nil {
		t.Fatal("expected date to parse")
	}
	want := time.Date(2024, 2, 1, 23, 59, 59, 999999999, time.UTC)
	if !to.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *to)
	}

	c, _ = newTestContext(http.MethodGet, "/?from=2024-02-01T10:00:00-03:00")
	from, ok := api.parseTimeQuery(c, "from", false)
	if !ok || from == nil || from.Hour() != 13 {
		t.Fatalf("expected RFC3339 value in UTC, got %v", from)
	}

	c, _ = newTestContext(http.MethodGet, "/")
	if missing, ok := api.parseTimeQuery(c, "from", false); !ok || missing != nil {
		t.Fatal("expected absent value to be an open bound")
	}

	c, w := newTestContext(http.MethodGet, "/?from=soon")
	if _, ok := api.parseTimeQuery(c, "from", false); ok {
		t.Fatal("expected invalid value to fail")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQueryLimit(t *testing.T) {
	tests := map[string]int{
		"/?limit=5":   5,
		"/?limit=abc": 0,
		"/?limit=-3":  0,
		"/":           0,
	}
	for target, want := range tests {
		c, _ := newTestContext(http.MethodGet, target)
		if got := queryLimit(c); got != want {
			t.Fatalf("queryLimit(%q) = %d, want %d", target, got, want)
		}
	}
}

func TestRequestIDReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDContextKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected incoming id to be reused, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Body.String()) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Body.String())
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	html, err := renderMarkdown("# Título\n\n[link](javascript:alert(1)) <img src=x onerror=alert(1)>")
	if err != nil {
		t.Fatalf("renderMarkdown returned error: %v", err)
	}
	if !strings.Contains(html, "<h1") || strings.Contains(html, "javascript:") || strings.Contains(html, "onerror") {
		t.Fatalf("unexpected html: %q", html)
	}
}

func TestContentViewAddsImageURL(t *testing.T) {
	api := &API{log: logger.Nop()}

	view := api.newContentView(db.Content{ID: 7, Section: "hero", ImageData: []byte{1}, ImageType: "image/jpeg"})
	if view.ImageURL == nil || *view.ImageURL != "/api/content/image/7" {
		t.Fatalf("expected image url, got %v", view.ImageURL)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("failed to marshal view: %v", err)
	}
	if strings.Contains(string(raw), "imageData") {
		t.Fatal("image bytes must not be serialized")
	}
	if !strings.Contains(string(raw), `"section":"hero"`) {
		t.Fatalf("expected embedded fields, got %s", raw)
	}

	plain := api.newContentView(db.Content{ID: 8, Section: "hero"})
	if plain.ImageURL != nil {
		t.Fatal("expected no image url without image data")
	}
}
