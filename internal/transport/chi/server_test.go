package chi

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	badgerdb "github.com/kailas-cloud/campusnav/internal/db/badger"
	buildingrepo "github.com/kailas-cloud/campusnav/internal/repository/building"
	"github.com/kailas-cloud/campusnav/internal/storage"
	buildinguc "github.com/kailas-cloud/campusnav/internal/usecase/building"
	healthuc "github.com/kailas-cloud/campusnav/internal/usecase/health"
	imageuc "github.com/kailas-cloud/campusnav/internal/usecase/image"
	searchuc "github.com/kailas-cloud/campusnav/internal/usecase/search"
)

const testOrigin = "https://map.campus.example"

type testAPI struct {
	handler http.Handler
	store   *badgerdb.Store
}

func newTestAPI(t *testing.T, apiKeys ...string) *testAPI {
	t.Helper()
	store, err := badgerdb.Open(badgerdb.Config{InMemory: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(store.Close)

	images, err := storage.NewLocal(storage.LocalConfig{Dir: t.TempDir(), BaseURL: "/images"})
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	repo := buildingrepo.New(store, "test:")
	buildings := buildinguc.New(repo, imageuc.NewRemover(images))
	srv := NewServer(
		buildings,
		imageuc.New(buildings, images, nil, imageuc.Config{MaxBytes: 1 << 20}),
		searchuc.New(buildings, nil, nil),
		healthuc.New(store, images),
		zap.NewNop(),
	)
	h := NewRouter(srv, RouterConfig{
		APIKeys:     apiKeys,
		CORSOrigins: []string{testOrigin},
		Images:      images.Handler(),
		ImagesPath:  "/images",
	})
	return &testAPI{handler: h, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	for _, body := range []string{
		`{"id":"library","name":"Central Library","short_name":"Library","category":"academic",
		  "department":"Library Services","keywords":["Reading Rooms"],
		  "coordinates":{"latitude":6.517629,"longitude":3.3753}}`,
		`{"id":"senate","name":"Senate Building","short_name":"Senate","category":"administrative",
		  "department":"Administration","keywords":["Council Chamber"],
		  "coordinates":{"latitude":6.518075,"longitude":3.371708}}`,
	} {
		if rr := a.do(t, http.MethodPost, "/api/v1/buildings", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed: %d %s", rr.Code, rr.Body.String())
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings/central-library", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get by slug: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("ETag") != `"1"` {
		t.Errorf("ETag = %q", rr.Header().Get("ETag"))
	}
	b := decode[BuildingResponse](t, rr)
	if b.ID != "library" || b.ShortName != "Library" || b.Revision != 1 {
		t.Errorf("unexpected building: %+v", b)
	}

	if rr := api.do(t, http.MethodGet, "/api/v1/buildings/library", nil); rr.Code != http.StatusOK {
		t.Errorf("get by id: %d", rr.Code)
	}
}

func TestCreate_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	tests := []struct {
		name string
		body string
		want int
		code ErrorCode
	}{
		{"malformed", `{`, http.StatusBadRequest, CodeBadRequest},
		{"unknown field", `{"name":"X","colour":"red","coordinates":{"latitude":1,"longitude":1}}`,
			http.StatusBadRequest, CodeBadRequest},
		{"no coordinates", `{"name":"X"}`, http.StatusBadRequest, CodeValidationFailed},
		{"no name", `{"coordinates":{"latitude":1,"longitude":1}}`, http.StatusBadRequest, CodeValidationFailed},
		{"bad latitude", `{"name":"X","coordinates":{"latitude":91,"longitude":1}}`,
			http.StatusBadRequest, CodeValidationFailed},
		{"duplicate id", `{"id":"library","name":"Other","coordinates":{"latitude":1,"longitude":1}}`,
			http.StatusConflict, CodeBuildingExists},
		{"duplicate slug", `{"name":"Central Library","coordinates":{"latitude":1,"longitude":1}}`,
			http.StatusConflict, CodeBuildingExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/api/v1/buildings", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/api/v1/buildings/nowhere", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr).Code; got != CodeBuildingNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestSearch_LibraryExample(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?q=library", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	resp := decode[SearchResponse](t, rr)
	if resp.Mode != "scored" || len(resp.Items) == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	first := resp.Items[0]
	if first.Name != "Central Library" || first.Score == nil || *first.Score != 100 {
		t.Errorf("first = %+v", first)
	}
	if first.DistanceKm != nil {
		t.Error("distance reported without location")
	}
}

func TestSearch_Nearest(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?lat=6.5181&lng=3.3717&limit=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	resp := decode[SearchResponse](t, rr)
	if resp.Mode != "nearest" || len(resp.Items) != 1 || resp.Items[0].ID != "senate" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Items[0].DistanceKm == nil || *resp.Items[0].DistanceKm > 0.1 {
		t.Errorf("distance = %v", resp.Items[0].DistanceKm)
	}
}

func TestSearch_Filters(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?category=administrative", nil)
	resp := decode[SearchResponse](t, rr)
	if resp.Mode != "filter" || len(resp.Items) != 1 || resp.Items[0].ID != "senate" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSearch_BadParams(t *testing.T) {
	api := newTestAPI(t)
	for _, q := range []string{"limit=0x", "limit=51", "limit=-1", "lat=6.5", "lat=abc&lng=1", "lat=95&lng=1"} {
		rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?"+q, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rr.Code)
		}
	}
}

func TestSearch_ValidationMessages(t *testing.T) {
	api := newTestAPI(t)
	tests := []struct {
		query string
		want  string
	}{
		{"limit=51", "limit must be between 1 and 50"},
		{"lat=6.5", "lat and lng must be provided together"},
		{"lat=95&lng=1", "location"},
	}
	for _, tt := range tests {
		rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?"+tt.query, nil)
		resp := decode[ErrorResponse](t, rr)
		if resp.Code != CodeValidationFailed {
			t.Errorf("%s: code = %q", tt.query, resp.Code)
		}
		if !strings.Contains(resp.Message, tt.want) || !strings.HasPrefix(resp.Message, "invalid request") {
			t.Errorf("%s: message = %q", tt.query, resp.Message)
		}
	}
}

func TestList_Pagination(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings?limit=1", nil)
	page := decode[BuildingListResponse](t, rr)
	if len(page.Items) != 1 || !page.HasMore || page.NextCursor == nil {
		t.Fatalf("first page: %+v", page)
	}

	rr = api.do(t, http.MethodGet, "/api/v1/buildings?limit=1&cursor="+*page.NextCursor, nil)
	page = decode[BuildingListResponse](t, rr)
	if len(page.Items) != 1 || page.HasMore || page.NextCursor != nil {
		t.Fatalf("second page: %+v", page)
	}

	if rr := api.do(t, http.MethodGet, "/api/v1/buildings?limit=1000", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("oversized limit: %d", rr.Code)
	}
}

func TestReplace_IfMatch(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)
	body := `{"name":"Main Library","coordinates":{"latitude":6.5176,"longitude":3.3753}}`

	rr := api.do(t, http.MethodPut, "/api/v1/buildings/library", body, "If-Match", `"9"`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("stale If-Match: %d", rr.Code)
	}
	if rr.Header().Get("ETag") != `"1"` {
		t.Errorf("conflict ETag = %q", rr.Header().Get("ETag"))
	}

	rr = api.do(t, http.MethodPut, "/api/v1/buildings/library", body, "If-Match", `"1"`)
	if rr.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", rr.Code, rr.Body.String())
	}
	b := decode[BuildingResponse](t, rr)
	if b.Name != "Main Library" || b.Slug != "central-library" || b.Revision != 2 {
		t.Errorf("unexpected building: %+v", b)
	}

	if rr := api.do(t, http.MethodPut, "/api/v1/buildings/library", body, "If-Match", "abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed If-Match: %d", rr.Code)
	}
}

func TestPatch(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodPatch, "/api/v1/buildings/senate", `{"short_name":null,"keywords":["Registry"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rr.Code, rr.Body.String())
	}
	b := decode[BuildingResponse](t, rr)
	if b.ShortName != "" || len(b.Keywords) != 1 || b.Keywords[0] != "Registry" {
		t.Errorf("unexpected building: %+v", b)
	}

	for _, body := range []string{`{}`, `{"id":"x"}`, `{"name":null}`, `{"colour":"red"}`, `[`} {
		if rr := api.do(t, http.MethodPatch, "/api/v1/buildings/senate", body); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, rr.Code)
		}
	}
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	if rr := api.do(t, http.MethodDelete, "/api/v1/buildings/senate-building", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, "/api/v1/buildings/senate", nil); rr.Code != http.StatusNotFound {
		t.Errorf("after delete: %d", rr.Code)
	}
}

func TestGeoJSON(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings.geojson", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type = %q", ct)
	}
	fc := decode[map[string]any](t, rr)
	if fc["type"] != "FeatureCollection" || len(fc["features"].([]any)) != 2 {
		t.Errorf("unexpected collection: %v", fc)
	}
}

func multipartImage(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(64, 48, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageUploadServeDelete(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	body, ct := multipartImage(t, "front.png", "image/png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/buildings/library/image", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	b := decode[BuildingResponse](t, rr)
	if !strings.HasPrefix(b.ThumbnailURL, "/images/buildings/library/") || b.ImageURL == "" {
		t.Fatalf("urls = %q %q", b.ImageURL, b.ThumbnailURL)
	}

	if rr := api.do(t, http.MethodGet, b.ThumbnailURL, nil); rr.Code != http.StatusOK {
		t.Errorf("serve thumbnail: %d", rr.Code)
	}

	if rr := api.do(t, http.MethodDelete, "/api/v1/buildings/library/image", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete image: %d", rr.Code)
	}
	got := decode[BuildingResponse](t, api.do(t, http.MethodGet, "/api/v1/buildings/library", nil))
	if got.ImageURL != "" || got.ThumbnailURL != "" {
		t.Errorf("urls not cleared: %+v", got)
	}
}

func TestImageUpload_Rejections(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	tests := []struct {
		name     string
		filename string
		ct       string
		data     []byte
		want     int
	}{
		{"wrong content type", "a.png", "text/plain", []byte("hi"), http.StatusBadRequest},
		{"wrong extension", "a.bmp", "image/bmp", []byte("hi"), http.StatusBadRequest},
		{"too large", "a.png", "image/png", make([]byte, 3<<19), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartImage(t, tt.filename, tt.ct, tt.data)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/buildings/library/image", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			api.handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestAuth_MutationsRequireKey(t *testing.T) {
	api := newTestAPI(t, "secret")
	body := `{"name":"Gate","coordinates":{"latitude":6.5,"longitude":3.37}}`

	if rr := api.do(t, http.MethodPost, "/api/v1/buildings", body); rr.Code != http.StatusUnauthorized {
		t.Errorf("without key: %d", rr.Code)
	}
	if rr := api.do(t, http.MethodPost, "/api/v1/buildings", body, "Authorization", "Bearer secret"); rr.Code != http.StatusCreated {
		t.Errorf("with key: %d", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, "/api/v1/buildings/search?q=gate", nil); rr.Code != http.StatusOK {
		t.Errorf("public search: %d", rr.Code)
	}
}

func TestCORS_PreflightBypassesAuth(t *testing.T) {
	api := newTestAPI(t, "secret")

	rr := api.do(t, http.MethodOptions, "/api/v1/buildings", nil,
		"Origin", testOrigin,
		"Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "Authorization, Content-Type",
	)
	if rr.Code >= 300 {
		t.Fatalf("preflight status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/api/v1/buildings", nil, "Origin", testOrigin)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rr = api.do(t, http.MethodGet, "/api/v1/buildings", nil, "Origin", "https://elsewhere.example")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	h := decode[HealthResponse](t, rr)
	if h.Status != "ok" || h.Checks["database"] != "ok" || h.Checks["image_storage"] != "ok" {
		t.Errorf("unexpected health: %+v", h)
	}

	api.store.Close()
	rr = api.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("after close: %d", rr.Code)
	}
}

func TestRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr).Code; got != CodeInternalError {
		t.Errorf("code = %s", got)
	}
}
