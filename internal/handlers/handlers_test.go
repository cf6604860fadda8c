package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/internal/auth"
	"phonebook/internal/cache"
	"phonebook/internal/db"
	"phonebook/internal/logger"
	"phonebook/internal/service"
)

type testServer struct {
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "phonebook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := logger.FromWriter(io.Discard)
	a := auth.New(database, auth.Options{Secret: "test-secret"})
	svc := service.New(database, cache.New(time.Minute), log)
	h := New(svc, database, a, log)

	token, err := a.IssueSession()
	require.NoError(t, err)
	return &testServer{handler: h.Routes("", ""), token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string, writer bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if writer {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type noteJSON struct {
	ID           *int64 `json:"id"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	IsCheckedOff *bool  `json:"is_checked_off"`
	Color        struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Hex  string `json:"hex"`
	} `json:"color"`
	Tag struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"tag"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetNotes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/notes", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	notes := decode[[]noteJSON](t, rec)
	require.Len(t, notes, 5)
	assert.Equal(t, int64(1), *notes[0].ID)
	assert.Equal(t, "KnaB", notes[0].Name)
	assert.Nil(t, notes[0].IsCheckedOff)
	assert.Equal(t, "Friends", notes[0].Tag.Name)
}

func TestCreateNote(t *testing.T) {
	s := newTestServer(t)
	body := `{"name":"X","phone_number":"Y","is_checked_off":true,"color_id":3,"tag_id":2}`

	rec := s.do(t, http.MethodPost, "/api/notes", body, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notes", body, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode[noteJSON](t, rec)
	require.NotNil(t, note.ID)
	assert.Equal(t, int64(6), *note.ID)
	require.NotNil(t, note.IsCheckedOff)
	assert.True(t, *note.IsCheckedOff)
	assert.Equal(t, int64(3), note.Color.ID)

	rec = s.do(t, http.MethodPost, "/api/notes", `{"name":"","color_id":3}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notes", `{"name":"bad","color_id":999}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndToggle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/notes/2", `{"name":"creamss","phone_number":"1","is_checked_off":false,"color_id":2,"tag_id":2}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/notes/2/toggle", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	note := decode[noteJSON](t, rec)
	require.NotNil(t, note.IsCheckedOff)
	assert.True(t, *note.IsCheckedOff)

	rec = s.do(t, http.MethodPost, "/api/notes/1/toggle", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/notes/999", `{"name":"ghost"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/notes/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrashFlow(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"1", "2", "3"} {
		rec := s.do(t, http.MethodDelete, "/api/notes/"+id, "", true)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := s.do(t, http.MethodDelete, "/api/notes/1", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/trash?tab=0", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]noteJSON](t, rec), 3)

	rec = s.do(t, http.MethodGet, "/api/trash?tab=1", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]noteJSON](t, rec))

	rec = s.do(t, http.MethodGet, "/api/trash/tabs", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	tabs := decode[[]tabSummary](t, rec)
	require.Len(t, tabs, 2)
	assert.Equal(t, tabSummary{Index: 0, Name: "REGULAR", Count: 3}, tabs[0])
	assert.Equal(t, tabSummary{Index: 1, Name: "CHECKABLE", Count: 0}, tabs[1])

	rec = s.do(t, http.MethodGet, "/api/trash?tab=7", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/trash/restore", `{"ids":[1,3]}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/trash/restore", `{"ids":[1,3]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 3}, decode[idsResponse](t, rec).Changed)

	rec = s.do(t, http.MethodPost, "/api/trash/delete", `{"ids":[2,4]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, decode[idsResponse](t, rec).Changed)

	rec = s.do(t, http.MethodGet, "/api/notes/2", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/notes", "", false)
	assert.Len(t, decode[[]noteJSON](t, rec), 4)

	rec = s.do(t, http.MethodPost, "/api/trash/delete", `{"ids":[]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDialogs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/trash/dialogs/2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Restore Contacts", decode[map[string]string](t, rec)["title"])

	rec = s.do(t, http.MethodGet, "/api/trash/dialogs/1", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTagsAndColors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/tags", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 5)

	rec = s.do(t, http.MethodGet, "/api/colors", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 20)

	rec = s.do(t, http.MethodGet, "/api/tags/notes?name=Friends", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]noteJSON](t, rec), 3)

	rec = s.do(t, http.MethodGet, "/api/tags/notes", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[[]struct {
		Tag   struct{ Name string } `json:"tag"`
		Notes []noteJSON            `json:"notes"`
	}](t, rec)
	require.Len(t, groups, 5)
	assert.Equal(t, "Mobile", groups[0].Tag.Name)
	assert.Empty(t, groups[0].Notes)

	rec = s.do(t, http.MethodPost, "/api/tags", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVCard(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/contact/5.vcf", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vcard; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, strings.ToUpper(rec.Body.String()), "TEL;TYPE=HOME:025999999")
	assert.Equal(t, `attachment; filename="My_Home.vcf"`, rec.Header().Get("Content-Disposition"))

	rec = s.do(t, http.MethodGet, "/contact/404.vcf", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/settings", `{"theme":"dark","language":"en"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/settings", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", decode[map[string]string](t, rec)["theme"])
}

func TestCheckAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/check", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["authenticated"])

	rec = s.do(t, http.MethodGet, "/api/auth/check", "", false)
	assert.False(t, decode[map[string]bool](t, rec)["authenticated"])
}

func TestSelectionFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/trash/select/1", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, id := range []string{"1", "2"} {
		require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/notes/"+id, "", true).Code)
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/trash/select/"+id, "", true).Code)
	}

	rec = s.do(t, http.MethodGet, "/api/trash/selection", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 2}, decode[map[string][]int64](t, rec)["ids"])

	rec = s.do(t, http.MethodPost, "/api/trash/confirm/3", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 2}, decode[idsResponse](t, rec).Changed)

	rec = s.do(t, http.MethodGet, "/api/trash", "", false)
	assert.Empty(t, decode[[]noteJSON](t, rec))

	rec = s.do(t, http.MethodPost, "/api/trash/confirm/9", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNote_ServedShapeRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/notes/2", `{"is_checked_off":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, path := range []string{"/api/notes/4", "/api/notes/2"} {
		rec = s.do(t, http.MethodGet, path, "", false)
		require.Equal(t, http.StatusOK, rec.Code)
		before := decode[noteJSON](t, rec)

		rec = s.do(t, http.MethodPut, path, rec.Body.String(), true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		after := decode[noteJSON](t, rec)

		assert.Equal(t, before, after, path)
	}

	rec = s.do(t, http.MethodGet, "/api/notes/4", "", false)
	note := decode[noteJSON](t, rec)
	assert.Equal(t, "Purple", note.Color.Name)
	assert.Equal(t, "Work", note.Tag.Name)
	assert.Nil(t, note.IsCheckedOff)

	rec = s.do(t, http.MethodGet, "/api/notes/2", "", false)
	note = decode[noteJSON](t, rec)
	require.NotNil(t, note.IsCheckedOff)
	assert.True(t, *note.IsCheckedOff)
}

func TestUpdateNote_PartialBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/notes/4", `{"phone_number":"0800"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	note := decode[noteJSON](t, rec)
	assert.Equal(t, "JohnRuKa", note.Name)
	assert.Equal(t, "0800", note.PhoneNumber)
	assert.Equal(t, int64(4), note.Color.ID)
	assert.Equal(t, int64(4), note.Tag.ID)

	rec = s.do(t, http.MethodPut, "/api/notes/4", `{"color":{"id":7},"tag":{"id":5},"is_checked_off":false}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	note = decode[noteJSON](t, rec)
	assert.Equal(t, "Blue", note.Color.Name)
	assert.Equal(t, "University", note.Tag.Name)
	require.NotNil(t, note.IsCheckedOff)
	assert.False(t, *note.IsCheckedOff)

	rec = s.do(t, http.MethodPut, "/api/notes/4", `{"is_checked_off":"yes"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetColorAndTag(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/colors/4", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Purple", decode[map[string]any](t, rec)["name"])

	rec = s.do(t, http.MethodGet, "/api/tags/2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Friends", decode[map[string]any](t, rec)["name"])

	rec = s.do(t, http.MethodGet, "/api/tags/404", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/colors/x", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "phonebook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := logger.FromWriter(io.Discard)
	a := auth.New(database, auth.Options{Secret: "test-secret", SessionTTL: time.Hour})
	h := New(service.New(database, cache.New(time.Minute), log), database, a, log).Routes("", "")

	link, err := a.NewLoginLink(context.Background(), "http://book.local")
	require.NoError(t, err)
	path := strings.TrimPrefix(link, "http://book.local")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, decode[map[string]bool](t, rec)["authenticated"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
