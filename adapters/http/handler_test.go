package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sectionuc "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	router *gin.Engine
	jwt    *auth.JWTService
	repo   *memEntries
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	reg := section.Default()
	log := logger.NewNopLogger()
	repo := newMemEntries()
	pages := &memPages{pages: make(map[string]string)}
	cache := resume.NewMemoryCache()

	syncer := sectionuc.NewSyncer(reg, repo, pages, log)
	manager := resume.NewManager(reg, cache, resume.WithLoader(syncer.Hydrate))
	gen := preview.NewGenerator(reg)

	resumes, err := sectionuc.NewResumeUseCase(reg, manager, syncer, gen, cache, pages, time.Minute, log)
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	router := NewRouter(Handlers{
		Section: NewSectionHandler(reg, sectionuc.NewEntryUseCase(reg, repo, syncer, manager, log)),
		Resume:  NewResumeHandler(reg, resumes),
		Editor:  NewEditorHandler(reg, sectionuc.NewEditorUseCase(reg, manager, syncer, gen, log), log),
	}, jwtSvc, log)

	return &handlerFixture{router: router, jwt: jwtSvc, repo: repo}
}

func (f *handlerFixture) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := f.jwt.GenerateToken(userID, role)
	require.NoError(t, err)
	return tok
}

func (f *handlerFixture) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestErrorMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ErrorMiddleware(logger.NewNopLogger()))
	router.GET("/validation", func(c *gin.Context) {
		c.Error(apperror.NewValidation([]apperror.FieldError{{Path: "personal.email", Message: "Email is required"}}))
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("connection reset by peer"))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/validation", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "personal.email")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}

func TestAuthMiddleware(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	router := gin.New()
	router.GET("/me", AuthMiddleware(jwtSvc, logger.NewNopLogger()), func(c *gin.Context) {
		id, _ := GetUserIDFromGinContext(c)
		c.String(http.StatusOK, id.String())
	})
	router.GET("/admin", AuthMiddleware(jwtSvc, logger.NewNopLogger()), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	uid := uuid.New()
	userTok, err := jwtSvc.GenerateToken(uid, auth.RoleUser)
	require.NoError(t, err)
	adminTok, err := jwtSvc.GenerateToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
	}{
		{"missing token", "/me", func(*http.Request) {}, http.StatusUnauthorized},
		{"malformed header", "/me", func(r *http.Request) { r.Header.Set("Authorization", userTok) }, http.StatusUnauthorized},
		{"bad signature", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+userTok+"x") }, http.StatusUnauthorized},
		{"bearer", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+userTok) }, http.StatusOK},
		{"cookie", "/me", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: userTok}) }, http.StatusOK},
		{"user on admin route", "/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+userTok) }, http.StatusForbidden},
		{"admin on admin route", "/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminTok) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.path == "/me" && tt.status == http.StatusOK {
				assert.Equal(t, uid.String(), rr.Body.String())
			}
		})
	}
}

func TestSectionAPI_CreateListAndOwnership(t *testing.T) {
	f := newHandlerFixture(t)
	uid := uuid.New()
	tok := f.token(t, uid, auth.RoleUser)

	rr := f.serve(jsonRequest(http.MethodPost, "/api/experience", gin.H{
		"jobTitle":  "Engineer",
		"company":   "Analytical Engines",
		"startDate": "1842-01",
	}), tok)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created EntryDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, section.Experience, created.Section)

	rr = f.serve(httptest.NewRequest(http.MethodGet, "/api/experience/"+uid.String(), nil), tok)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []EntryDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Engineer", listed[0].Data["jobTitle"])

	other := f.token(t, uuid.New(), auth.RoleUser)
	rr = f.serve(httptest.NewRequest(http.MethodGet, "/api/experience/"+uid.String(), nil), other)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.serve(jsonRequest(http.MethodPost, "/api/experience", gin.H{"company": "No title"}), tok)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.serve(httptest.NewRequest(http.MethodDelete, "/api/experience/"+created.ID, nil), tok)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestEditor_InvalidSubmitRendersErrors(t *testing.T) {
	f := newHandlerFixture(t)
	tok := f.token(t, uuid.New(), auth.RoleUser)

	rr := f.serve(formRequest("/app/sections/personal", url.Values{
		"_action":            {"save"},
		"personal.firstName": {"Ada"},
	}), tok)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "field-error")
	assert.Contains(t, rr.Body.String(), `value="Ada"`)
}

func TestEditor_SavedSectionReachesPublicPage(t *testing.T) {
	f := newHandlerFixture(t)
	uid := uuid.New()
	tok := f.token(t, uid, auth.RoleUser)

	req := formRequest("/app/sections/personal", url.Values{
		"_action":            {"save"},
		"personal.firstName": {"Ada"},
		"personal.lastName":  {"Lovelace"},
		"personal.email":     {"ada@example.com"},
	})
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tok})
	rr := f.serve(req, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Saved")

	rr = f.serve(httptest.NewRequest(http.MethodGet, "/resume/"+uid.String(), nil), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Lovelace")

	rr = f.serve(httptest.NewRequest(http.MethodGet, "/resume/"+uuid.NewString(), nil), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditor_PageDrivesLivePreview(t *testing.T) {
	f := newHandlerFixture(t)
	tok := f.token(t, uuid.New(), auth.RoleUser)

	rr := f.serve(httptest.NewRequest(http.MethodGet, "/app/sections/personal", nil), tok)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	assert.Contains(t, body, `<iframe name="preview"`)
	assert.Contains(t, body, `formaction="/app/sections/personal/live"`)
	assert.Contains(t, body, `formtarget="preview"`)
	assert.Contains(t, body, `data-live-url="/app/sections/personal/live"`)

	rr = f.serve(formRequest("/app/sections/personal/live", url.Values{
		"personal.firstName": {"Augusta"},
		"personal.lastName":  {"King"},
	}), tok)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Augusta")

	rr = f.serve(httptest.NewRequest(http.MethodGet, "/app/sections/personal", nil), tok)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unsaved changes")
}

func TestEditor_UnknownSectionIsNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	tok := f.token(t, uuid.New(), auth.RoleUser)

	rr := f.serve(httptest.NewRequest(http.MethodGet, "/app/sections/hobbies", nil), tok)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResumeSchemaIsPublic(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.serve(httptest.NewRequest(http.MethodGet, "/api/resume/schema", nil), "")
	require.Equal(t, http.StatusOK, rr.Code)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, section.Personal)
}
