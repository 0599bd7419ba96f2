package relay_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-gophers/rest-gateway/gqltesting"
	"github.com/graph-gophers/rest-gateway/internal/graph"
	"github.com/graph-gophers/rest-gateway/internal/rest"
	"github.com/graph-gophers/rest-gateway/relay"
)

func newHandler(t *testing.T) (*relay.Handler, *gqltesting.Store) {
	t.Helper()
	store := gqltesting.NewStore(gqltesting.Fixtures())
	srv := store.Serve(t)
	client, err := rest.New(srv.URL)
	require.NoError(t, err)
	schema, err := graph.NewSchema(client, graph.Config{})
	require.NoError(t, err)

	cfg := relay.NewConfig()
	cfg.Schema = schema
	cfg.Pretty = false
	return relay.New(cfg), store
}

const companyResponse = `{"data":{"company":{"name":"Apple"}}}`

func TestServeHTTP(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
	}{
		{"json", http.MethodPost, "/graphql", "application/json", `{"query":"{ company(id: \"1\") { name } }", "operationName":"", "variables": null}`},
		{"json with charset", http.MethodPost, "/graphql", "application/json; charset=utf-8", `{"query":"{ company(id: \"1\") { name } }"}`},
		{"json string variables", http.MethodPost, "/graphql", "application/json", `{"query":"query($id: String) { company(id: $id) { name } }", "variables": "{\"id\": \"1\"}"}`},
		{"json object variables", http.MethodPost, "/graphql", "application/json", `{"query":"query($id: String) { company(id: $id) { name } }", "variables": {"id": "1"}}`},
		{"graphql", http.MethodPost, "/graphql", "application/graphql", `{ company(id: "1") { name } }`},
		{"form", http.MethodPost, "/graphql", "application/x-www-form-urlencoded", "query=" + url.QueryEscape(`{ company(id: "1") { name } }`)},
		{"get", http.MethodGet, "/graphql?query=" + url.QueryEscape(`{ company(id: "1") { name } }`), "", ""},
		{"get with variables", http.MethodGet, "/graphql?query=" + url.QueryEscape(`query($id: String) { company(id: $id) { name } }`) + "&variables=" + url.QueryEscape(`{"id":"1"}`), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			h.ServeHTTP(w, r)
			assertResponse(t, w, http.StatusOK, companyResponse)
		})
	}
}

func TestFieldErrorsKeepStatusOK(t *testing.T) {
	h, _ := newHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ user(id: \"999\") { id } }"}`))
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.Contains(t, w.Body.String(), `"data":{"user":null}`)
}

func TestValidationErrorIsBadRequest(t *testing.T) {
	h, store := newHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"mutation { addUser(firstName: \"Ada\") { id } }"}`))
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), `"data"`)
	assert.Empty(t, store.Calls())
}

func TestMissingQuery(t *testing.T) {
	h, _ := newHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)))
	assertResponse(t, w, http.StatusBadRequest, `{"errors":[{"message":"Must provide query string."}]}`)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
}

func TestGraphiQL(t *testing.T) {
	h, store := newHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "GraphiQL")
	assert.Empty(t, store.Calls())

	// raw forces a JSON answer even for browsers.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/graphql?raw&query="+url.QueryEscape(`{ company(id: "1") { name } }`), nil)
	r.Header.Set("Accept", "text/html")
	h.ServeHTTP(w, r)
	assertResponse(t, w, http.StatusOK, companyResponse)
}

func TestGraphiQLDisabled(t *testing.T) {
	h, _ := newHandler(t)
	cfg := relay.NewConfig()
	cfg.Schema = h.Schema
	cfg.GraphiQL = false
	h = relay.New(cfg)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	r.Header.Set("Accept", "text/html")
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationOverGETExecutes(t *testing.T) {
	h, store := newHandler(t)

	q := url.QueryEscape(`mutation { editUser(id: "44", age: 29) { age } }`)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?query="+q, nil))
	assertResponse(t, w, http.StatusOK, `{"data":{"editUser":{"age":29}}}`)
	assert.Equal(t, []string{"PATCH /users/44"}, store.Calls())
}

func TestPretty(t *testing.T) {
	h, _ := newHandler(t)
	cfg := relay.NewConfig()
	cfg.Schema = h.Schema
	h = relay.New(cfg)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ company(id: \"1\") { name } }"}`))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, r)

	assertResponse(t, w, http.StatusOK, companyResponse)
	assert.True(t, strings.HasPrefix(w.Body.String(), "{\n  \"data\""), w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)))
	assertResponse(t, w, http.StatusBadRequest, `{"errors":[{"message":"Must provide query string."}]}`)
}

func assertResponse(t *testing.T, w *httptest.ResponseRecorder, status int, want string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, want, strings.TrimSpace(w.Body.String()))
}
