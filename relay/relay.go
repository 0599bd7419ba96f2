// Package relay is the HTTP transport of the gateway: it turns GET and POST
// requests into executions of a graphql-go schema and serves GraphiQL to
// browsers.
package relay

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/errors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	gwlog "github.com/graph-gophers/rest-gateway/log"
	"github.com/graph-gophers/rest-gateway/playground"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ContentTypeJSON           = "application/json"
	ContentTypeGraphQL        = "application/graphql"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

type Handler struct {
	Schema   *graphql.Schema
	logger   *zap.Logger
	pretty   bool
	graphiql *playground.Page
}

type RequestOptions struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// A workaround for getting `variables` as a JSON string
type requestOptionsCompatibility struct {
	Query         string `json:"query"`
	Variables     string `json:"variables"`
	OperationName string `json:"operationName"`
}

func getFromForm(values url.Values) *RequestOptions {
	query := values.Get("query")
	if query == "" {
		return nil
	}
	var variables map[string]interface{}
	if s := values.Get("variables"); s != "" {
		_ = json.Unmarshal([]byte(s), &variables)
	}
	return &RequestOptions{
		Query:         query,
		Variables:     variables,
		OperationName: values.Get("operationName"),
	}
}

// NewRequestOptions parses an http.Request into GraphQL request options. URL
// parameters win over the body, as with express-graphql.
func NewRequestOptions(r *http.Request) *RequestOptions {
	if reqOpt := getFromForm(r.URL.Query()); reqOpt != nil {
		return reqOpt
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return &RequestOptions{}
	}

	contentType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	body := io.LimitReader(r.Body, maxBodySize)

	switch contentType {
	case ContentTypeGraphQL:
		b, err := io.ReadAll(body)
		if err != nil {
			return &RequestOptions{}
		}
		return &RequestOptions{Query: string(b)}

	case ContentTypeFormURLEncoded:
		r.Body = io.NopCloser(body)
		if err := r.ParseForm(); err != nil {
			return &RequestOptions{}
		}
		if reqOpt := getFromForm(r.PostForm); reqOpt != nil {
			return reqOpt
		}
		return &RequestOptions{}

	default:
		var opts RequestOptions
		b, err := io.ReadAll(body)
		if err != nil {
			return &opts
		}
		if err := json.Unmarshal(b, &opts); err != nil {
			// Probably `variables` was sent as a string instead of an object.
			var optsCompatible requestOptionsCompatibility
			if json.Unmarshal(b, &optsCompatible) != nil {
				return &RequestOptions{}
			}
			opts = RequestOptions{Query: optsCompatible.Query, OperationName: optsCompatible.OperationName}
			_ = json.Unmarshal([]byte(optsCompatible.Variables), &opts.Variables)
		}
		return &opts
	}
}

func wantsGraphiQL(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if _, raw := r.URL.Query()["raw"]; raw {
		return false
	}
	accept := r.Header.Get("Accept")
	return !strings.Contains(accept, ContentTypeJSON) && strings.Contains(accept, "text/html")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		h.writeErrors(w, http.StatusMethodNotAllowed, "GraphQL only supports GET and POST requests.")
		return
	}
	if h.graphiql != nil && wantsGraphiQL(r) {
		h.graphiql.ServeHTTP(w, r)
		return
	}

	// Mutations sent over GET are executed. graphql-go exposes no way to learn
	// the operation type before Exec, so they cannot be turned away here.
	opts := NewRequestOptions(r)
	if opts.Query == "" {
		h.writeErrors(w, http.StatusBadRequest, "Must provide query string.")
		return
	}

	ctx := r.Context()
	response := h.Schema.Exec(ctx, opts.Query, opts.OperationName, opts.Variables)

	status := http.StatusOK
	if response.Data == nil && len(response.Errors) > 0 {
		// Parse and validation failures: nothing was executed.
		status = http.StatusBadRequest
	}
	if len(response.Errors) > 0 {
		gwlog.For(ctx, h.logger).Info("graphql errors",
			zap.String("operation", opts.OperationName),
			zap.Int("count", len(response.Errors)),
			zap.String("first", response.Errors[0].Message),
		)
	}
	h.write(w, status, response)
}

func (h *Handler) writeErrors(w http.ResponseWriter, status int, message string) {
	h.write(w, status, &graphql.Response{Errors: []*errors.QueryError{errors.Errorf("%s", message)}})
}

func (h *Handler) write(w http.ResponseWriter, status int, response *graphql.Response) {
	var (
		responseJSON []byte
		err          error
	)
	if h.pretty {
		responseJSON, err = json.MarshalIndent(response, "", "  ")
	} else {
		responseJSON, err = json.Marshal(response)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(responseJSON)
}

type Config struct {
	Schema *graphql.Schema
	Logger *zap.Logger
	Pretty bool
	// GraphiQL serves the exploration page to browsers at the same path.
	GraphiQL bool
	// Endpoint is the path GraphiQL posts queries to.
	Endpoint string
}

func NewConfig() *Config {
	return &Config{
		Schema:   nil,
		Pretty:   true,
		GraphiQL: true,
		Endpoint: "/graphql",
	}
}

func New(p *Config) *Handler {
	if p == nil {
		p = NewConfig()
	}
	if p.Schema == nil {
		panic("Undefined GraphQL Schema")
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	h := &Handler{
		Schema: p.Schema,
		logger: p.Logger,
		pretty: p.Pretty,
	}
	if p.GraphiQL {
		h.graphiql = playground.New(p.Endpoint)
	}
	return h
}
