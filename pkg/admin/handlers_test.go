package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/metrics"
)

func newTestRouter(t *testing.T, opts ...HandlerOption) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	NewHandler(f.svc, opts...).Routes(r)
	return f, r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PublishListDelete(t *testing.T) {
	_, h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/endpoints", `{"projectName":"shop","route":"items","method":"GET","content":[{"id":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pub PublishResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pub))
	assert.Equal(t, "http://example.com/shop/items", pub.URL)

	rec = do(h, http.MethodGet, "/endpoints?project=shop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"endpoints":[{"route":"items","method":"GET","status_code":200,"url":"http://example.com/shop/items"}]}`, rec.Body.String())

	rec = do(h, http.MethodDelete, "/endpoints?project=shop&route=items&method=GET", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/endpoints?project=shop&route=items&method=GET", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestHandler_SetStatus(t *testing.T) {
	f, h := newTestRouter(t, WithPublicURL("https://mocks.test/"))
	f.publish(t, "shop", "items", "GET", `[]`)

	rec := do(h, http.MethodPut, "/endpoints/status", `{"projectName":"shop","route":"items","statusCode":418}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodPut, "/endpoints/status", `{"projectName":"shop","route":"items","statusCode":700}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/endpoints/status", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/endpoints?project=shop", "")
	assert.Contains(t, rec.Body.String(), `"url":"https://mocks.test/shop/items"`)
	assert.Contains(t, rec.Body.String(), `"status_code":418`)
}

func TestHandler_Metrics(t *testing.T) {
	m := metrics.New()
	_, h := newTestRouter(t, WithMetrics(m))

	do(h, http.MethodGet, "/endpoints", "")
	do(h, http.MethodGet, "/endpoints?project=p", "")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `mockapi_admin_requests_total{operation="list",status="400"} 1`)
	assert.Contains(t, sb.String(), `mockapi_admin_requests_total{operation="list",status="200"} 1`)
}

func TestHandler_OpenAPI(t *testing.T) {
	f, h := newTestRouter(t)
	f.publish(t, "shop", "items", "GET", `[{"id":1,"name":"a","price":9.5,"tags":["x"],"owner":{"id":2}}]`)
	f.publish(t, "shop", "items", "POST", `{"ok":true}`)
	_, err := f.svc.SetStatus(context.Background(), &StatusRequest{ProjectName: "shop", Route: "items", StatusCode: 503, ErrorMessage: "down", Method: "POST"})
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/openapi?project=shop", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := openapi3.NewLoader().LoadFromData(rec.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	item := doc.Paths.Value("/shop/items")
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	require.NotNil(t, item.Post)

	get := item.Get.Responses.Status(200)
	require.NotNil(t, get)
	schema := get.Value.Content.Get("application/json").Schema.Value
	assert.True(t, schema.Type.Is("array"))
	props := schema.Items.Value.Properties
	assert.True(t, props["id"].Value.Type.Is("integer"))
	assert.True(t, props["price"].Value.Type.Is("number"))
	assert.True(t, props["owner"].Value.Type.Is("object"))
	assert.NotNil(t, item.Get.Parameters.GetByInAndName("query", "page"))

	assert.NotNil(t, item.Post.Responses.Status(503))

	rec = do(h, http.MethodGet, "/openapi", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
