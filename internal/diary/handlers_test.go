package diary

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	name, contentType, data string
}

func newDiaryApp(t *testing.T) (*fiber.App, *Store, string) {
	t.Helper()
	dir := t.TempDir()
	disk, err := storage.NewDisk(dir, 1)
	require.NoError(t, err)
	store := NewStore()
	store.SeedDemo()
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	disk.Mount(app)
	RegisterRoutes(app.Group("/api"), store, disk)
	return app, store, dir
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="photos"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte(f.data))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func filesIn(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestCreateUpdateDeleteEntry(t *testing.T) {
	app, _, dir := newDiaryApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/entries",
		map[string]string{"title": "Kyoto", "location": "Kyoto, Japan", "date": "2024-11-02"},
		upload{"a.jpg", "image/jpeg", "aaa"}, upload{"b.png", "image/png", "bbb"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[Entry](t, resp)
	require.Len(t, created.Photos, 2)
	assert.Equal(t, "neutral", created.Mood)
	assert.Equal(t, 2, filesIn(t, dir))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, created.Photos[0], nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	keep, _ := json.Marshal([]string{created.Photos[1]})
	req = multipartRequest(t, http.MethodPut, "/api/entries/"+created.ID,
		map[string]string{"existingPhotos": string(keep), "mood": "happy"},
		upload{"c.webp", "image/webp", "ccc"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[Entry](t, resp)
	assert.Equal(t, "happy", updated.Mood)
	assert.Equal(t, "Kyoto", updated.Title)
	require.Len(t, updated.Photos, 2)
	assert.Equal(t, created.Photos[1], updated.Photos[0])
	assert.Equal(t, 2, filesIn(t, dir))

	body, _ := json.Marshal(map[string]string{"photoUrl": updated.Photos[0]})
	req = httptest.NewRequest(http.MethodDelete, "/api/entries/"+created.ID+"/photos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	afterPhoto := decode[Entry](t, resp)
	assert.Len(t, afterPhoto.Photos, 1)
	assert.Equal(t, 1, filesIn(t, dir))

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/entries/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, filesIn(t, dir))

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/entries/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRejections(t *testing.T) {
	app, store, dir := newDiaryApp(t)

	resp, _ := app.Test(multipartRequest(t, http.MethodPost, "/api/entries",
		map[string]string{"title": "Kyoto", "location": "Kyoto, Japan"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Title, location, and date are required", decode[map[string]string](t, resp)["error"])

	resp, _ = app.Test(multipartRequest(t, http.MethodPost, "/api/entries",
		map[string]string{"title": "a", "location": "b", "date": "2024-01-01"},
		upload{"ok.jpg", "image/jpeg", "x"}, upload{"notes.txt", "text/plain", "y"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	files := make([]upload, MaxPhotos+1)
	for i := range files {
		files[i] = upload{"p.jpg", "image/jpeg", "x"}
	}
	resp, _ = app.Test(multipartRequest(t, http.MethodPost, "/api/entries",
		map[string]string{"title": "a", "location": "b", "date": "2024-01-01"}, files...))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, filesIn(t, dir))
	assert.Len(t, store.List(), 2)
}

func TestCreateFromJSON(t *testing.T) {
	app, _, _ := newDiaryApp(t)
	body := strings.NewReader(`{"title":"Lisbon","location":"Lisbon, Portugal","date":"2023-06-01","mood":"curious"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	e := decode[Entry](t, resp)
	assert.Equal(t, "curious", e.Mood)
	assert.Empty(t, e.Photos)
}

func TestCommentsFavoritesNewsletter(t *testing.T) {
	app, _, _ := newDiaryApp(t)
	postJSON := func(path, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := postJSON("/api/entries/1/comments", `{"author":"Ana","text":"Bonjour"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[Comment](t, resp)
	assert.Equal(t, http.StatusBadRequest, postJSON("/api/entries/1/comments", `{"author":"Ana"}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, postJSON("/api/entries/9/comments", `{"author":"Ana","text":"x"}`).StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/api/entries/1/comments/"+c.ID, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON("/api/favorites/2", ``)
	assert.Equal(t, FavoriteState{Favorited: true, Count: 1}, decode[FavoriteState](t, resp))
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/favorites", nil))
	assert.Equal(t, []string{"2"}, decode[[]string](t, resp))

	assert.Equal(t, http.StatusBadRequest, postJSON("/api/newsletter", `{"email":"nope"}`).StatusCode)
	assert.Equal(t, http.StatusCreated, postJSON("/api/newsletter", `{"email":"a@x.com"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postJSON("/api/newsletter", `{"email":"a@x.com"}`).StatusCode)
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/newsletter/count", nil))
	assert.Equal(t, map[string]int{"count": 1}, decode[map[string]int](t, resp))

}

func TestDeletePhotoLeavesOtherEntriesFiles(t *testing.T) {
	app, store, dir := newDiaryApp(t)

	create := func(title string, file upload) Entry {
		resp, err := app.Test(multipartRequest(t, http.MethodPost, "/api/entries",
			map[string]string{"title": title, "location": "Somewhere", "date": "2024-05-01"}, file))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decode[Entry](t, resp)
	}
	mine := create("Mine", upload{"a.jpg", "image/jpeg", "aaa"})
	theirs := create("Theirs", upload{"b.jpg", "image/jpeg", "bbb"})
	require.Equal(t, 2, filesIn(t, dir))

	body, _ := json.Marshal(map[string]string{"photoUrl": theirs.Photos[0]})
	req := httptest.NewRequest(http.MethodDelete, "/api/entries/"+mine.ID+"/photos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, mine.Photos, decode[Entry](t, resp).Photos)

	assert.Equal(t, 2, filesIn(t, dir))
	kept, err := store.Get(theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.Photos, kept.Photos)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, theirs.Photos[0], nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
