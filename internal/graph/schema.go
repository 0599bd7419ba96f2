// Package graph declares the gateway's GraphQL schema and the resolvers that
// back it with calls to the REST store.
//
// User refers to Company and Position and both refer back to User. The SDL names
// the types, graphql-go links them when the schema is parsed, and the resolver
// types below return each other, so the cycle needs no forward declarations.
package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/trace/tracer"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/graph-gophers/rest-gateway/internal/rest"
	gwlog "github.com/graph-gophers/rest-gateway/log"
)

// Schema is the gateway's type graph.
const Schema = `
	schema {
		query: RootQuery
		mutation: Mutations
	}

	type RootQuery {
		users: [User]
		# Fetches a single user. An unknown id is reported as a NOT_FOUND field error.
		user(id: String): User
		companies: [Company]
		company(id: String): Company
		positions: [Position]
		position(id: String): Position
	}

	type Mutations {
		addUser(firstName: String!, lastName: String!, age: Int!, companyId: String, positionId: String): User
		# Deletes a user. Store failures resolve to an empty user instead of an error.
		deleteUser(id: String!): User
		# Applies only the supplied fields.
		editUser(id: String!, firstName: String, lastName: String, age: Int, companyId: String, positionId: String): User
	}

	type User {
		id: String
		firstName: String
		lastName: String
		age: Int
		companyId: String
		positionId: String
		company: Company
		position: Position
		# Friends in the order the user's record lists them, duplicates included.
		friends: [User]
	}

	type Company {
		id: String
		name: String
		description: String
		users: [User]
	}

	type Position {
		id: String
		title: String
		users: [User]
	}
`

// Store is the part of the REST client the resolvers need. *rest.Client
// implements it.
type Store interface {
	FetchOne(ctx context.Context, kind rest.Kind, id string, out interface{}) error
	FetchCollection(ctx context.Context, kind rest.Kind, out interface{}) error
	FetchNestedCollection(ctx context.Context, parent rest.Kind, parentID string, child rest.Kind, out interface{}) error
	Create(ctx context.Context, kind rest.Kind, payload, out interface{}) error
	Update(ctx context.Context, kind rest.Kind, id string, payload, out interface{}) error
	Delete(ctx context.Context, kind rest.Kind, id string, out interface{}) error
}

var _ Store = (*rest.Client)(nil)

// Config tunes schema execution.
type Config struct {
	Logger *zap.Logger
	// MaxParallelism bounds concurrently running resolvers per query. Zero keeps
	// the graphql-go default.
	MaxParallelism int
	// FanoutLimit bounds the concurrent friend lookups of one friends field. Zero
	// means unbounded.
	FanoutLimit int
	Tracer      tracer.Tracer
}

// NewSchema parses Schema and binds it to a Resolver using store. The result is
// safe for concurrent use and meant to be built once per process.
func NewSchema(store Store, cfg Config) (*graphql.Schema, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	opts := []graphql.SchemaOpt{
		graphql.Logger(&gwlog.PanicLogger{Logger: cfg.Logger}),
	}
	if cfg.MaxParallelism > 0 {
		opts = append(opts, graphql.MaxParallelism(cfg.MaxParallelism))
	}
	if cfg.Tracer != nil {
		opts = append(opts, graphql.Tracer(cfg.Tracer))
	}

	s, err := graphql.ParseSchema(Schema, NewResolver(store, cfg.Logger, cfg.FanoutLimit), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "graph: parsing schema")
	}
	return s, nil
}
