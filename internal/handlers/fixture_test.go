package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/middleware"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
	"github.com/go-chi/chi/v5"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (uploader *fakeUploader) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	uploader.calls++
	if uploader.err != nil {
		return "", uploader.err
	}
	io.Copy(io.Discard, body)
	return "https://cdn.test/" + key, nil
}

type fixture struct {
	settings      *services.SettingsService
	assets        *services.AssetService
	uploader      *fakeUploader
	events        *repository.StoreEventRepository
	photos        *repository.StorePhotoRepository
	announcements *repository.StoreAnnouncementRepository
	menuItems     *repository.StoreMenuItemRepository
	router        *chi.Mux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))

	settings := services.NewSettingsService(repository.NewSettingsRepository(store))
	photos := repository.NewPhotoRepository(store, mock)
	uploader := &fakeUploader{}
	return &fixture{
		settings:      settings,
		assets:        services.NewAssetService(uploader, settings, photos),
		uploader:      uploader,
		events:        repository.NewEventRepository(store, time.UTC, mock),
		photos:        photos,
		announcements: repository.NewAnnouncementRepository(store, mock),
		menuItems:     repository.NewMenuItemRepository(store, mock),
		router:        chi.NewRouter(),
	}
}

func (fixture *fixture) serve(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

func requestWithUser(request *http.Request, user models.User) *http.Request {
	ctx := context.WithValue(request.Context(), middleware.UserContextKey, user)
	return request.WithContext(ctx)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding body: %v", err)
	}
	request := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	request.Header.Set("Content-Type", "application/json")
	return request
}

// uploadRequest builds a multipart body whose file part carries contentType.
func uploadRequest(t *testing.T, target, contentType string, size int, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write(bytes.Repeat([]byte{0xFF}, size))
	for name, value := range fields {
		writer.WriteField(name, value)
	}
	writer.Close()

	request := httptest.NewRequest(http.MethodPost, target, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func decodeResult(t *testing.T, recorder *httptest.ResponseRecorder) result {
	t.Helper()
	var decoded result
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding response %q: %v", recorder.Body.String(), err)
	}
	return decoded
}
