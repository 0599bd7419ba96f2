// Package playground serves the GraphiQL page used to explore the gateway.
package playground

import (
	"bytes"
	"html/template"
	"net/http"
)

// Page renders GraphiQL against one endpoint. The query and variables URL
// parameters, when present, pre-fill the editor.
type Page struct {
	endpoint string
	title    string
	version  string
}

// New returns a page that sends queries to endpoint.
func New(endpoint string, options ...Option) *Page {
	p := &Page{endpoint: endpoint, title: "GraphiQL", version: "1.4.7"}
	for _, opt := range options {
		opt(p)
	}
	return p
}

type Option func(*Page)

func WithTitle(title string) Option {
	return func(p *Page) {
		p.title = title
	}
}

// WithVersion selects the graphiql release loaded from the CDN.
func WithVersion(version string) Option {
	return func(p *Page) {
		p.version = version
	}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var buff bytes.Buffer
	err := page.Execute(&buff, map[string]string{
		"title":     p.title,
		"endpoint":  p.endpoint,
		"version":   p.version,
		"query":     q.Get("query"),
		"variables": q.Get("variables"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buff.Bytes())
}

var page = template.Must(template.New("graphiql").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8"/>
	<title>{{.title}}</title>
	<link href="https://unpkg.com/graphiql@{{.version}}/graphiql.min.css" rel="stylesheet"/>
	<script src="https://unpkg.com/react@17/umd/react.production.min.js"></script>
	<script src="https://unpkg.com/react-dom@17/umd/react-dom.production.min.js"></script>
	<script src="https://unpkg.com/graphiql@{{.version}}/graphiql.min.js"></script>
</head>
<body style="width: 100%; height: 100%; margin: 0; overflow: hidden;">
	<div id="graphiql" style="height: 100vh;">Loading...</div>
	<script>
		var endpoint = {{.endpoint}};
		function graphQLFetcher(graphQLParams) {
			return fetch(endpoint, {
				method: "post",
				headers: {"Accept": "application/json", "Content-Type": "application/json"},
				body: JSON.stringify(graphQLParams),
				credentials: "include",
			}).then(function (response) {
				return response.text();
			}).then(function (responseBody) {
				try {
					return JSON.parse(responseBody);
				} catch (error) {
					return responseBody;
				}
			});
		}

		ReactDOM.render(
			React.createElement(GraphiQL, {
				fetcher: graphQLFetcher,
				query: {{.query}} || undefined,
				variables: {{.variables}} || undefined,
			}),
			document.getElementById("graphiql")
		);
	</script>
</body>
</html>
`))
