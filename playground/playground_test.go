package playground

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	p := New("/graphql", WithTitle("Directory"), WithVersion("1.0.0"))

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, `/graphql?query={user(id:"1"){id}}`, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "<title>Directory</title>")
	assert.Contains(t, body, "graphiql@1.0.0/graphiql.min.js")
	assert.Contains(t, body, `var endpoint = "/graphql";`)
	// The query is embedded as a JavaScript string.
	assert.Contains(t, body, `query: "{user(id:`)
}

func TestPageEscapesScript(t *testing.T) {
	p := New("/graphql")

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?query=%3C%2Fscript%3E", nil))

	assert.NotContains(t, w.Body.String(), "query: \"</script>")
}
