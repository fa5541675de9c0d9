package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/internal/testdb"
	"github.com/Skotchmaster/ecom_api/pkg/imagestore"
	"github.com/Skotchmaster/ecom_api/pkg/metrics"
	"github.com/Skotchmaster/ecom_api/pkg/tokens"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type stubImages struct{}

func (stubImages) Upload(_ context.Context, filename string, r io.Reader) (*imagestore.Image, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &imagestore.Image{URL: "https://cdn.example/" + filename, PublicID: "ecom/" + filename}, nil
}

type testServer struct {
	e       *echo.Echo
	db      *gorm.DB
	catalog *service.CatalogService
	metrics *metrics.ServerMetrics
}

func newTestServer(t *testing.T, mod func(*Deps)) *testServer {
	t.Helper()

	db := testdb.New(t)
	r := repo.New(db)
	m := metrics.NewServerMetrics("test", prometheus.NewRegistry())
	catalog := &service.CatalogService{Repo: r, Images: stubImages{}}

	e := echo.New()
	e.Validator = NewValidator()
	d := &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo:          r,
			JWTSecret:     testJWTSecret,
			RefreshSecret: testRefreshSecret,
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
		}},
		CatalogHandler: &CatalogHTTP{Svc: catalog},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &OrderHTTP{Svc: service.NewOrderService(r, m, 5*time.Second)},
		HealthHandler:  &HealthHTTP{DB: db},
		JWTSecret:      testJWTSecret,
		Metrics:        m.Handler(),
	}
	if mod != nil {
		mod(d)
	}
	Register(e, d)
	return &testServer{e: e, db: db, catalog: catalog, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	return s.form(t, http.MethodPost, path, nil, filename, content, token)
}

// form sends a multipart body with fields and, when filename is set, an
// "image" file part.
func (s *testServer) form(t *testing.T, method, path string, fields map[string]string, filename string, content []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) user(t *testing.T, role string) (*models.User, string) {
	t.Helper()

	u := testdb.User(t, s.db, testdb.Email(), role)
	tok, err := tokens.NewAccessToken(testJWTSecret, strconv.FormatUint(uint64(u.ID), 10), role, time.Now().Add(time.Minute))
	require.NoError(t, err)
	return u, tok
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
