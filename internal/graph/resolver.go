package graph

import (
	"context"

	"go.uber.org/zap"

	gwerrors "github.com/graph-gophers/rest-gateway/errors"
	"github.com/graph-gophers/rest-gateway/internal/model"
	"github.com/graph-gophers/rest-gateway/internal/rest"
	gwlog "github.com/graph-gophers/rest-gateway/log"
)

// Resolver is the root of both RootQuery and Mutations.
type Resolver struct {
	store  Store
	logger *zap.Logger
	fanout int
}

// NewResolver returns the root resolver. fanout bounds concurrent friend
// lookups; zero means unbounded.
func NewResolver(store Store, logger *zap.Logger, fanout int) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger, fanout: fanout}
}

type missingArgumentError struct {
	Field    string
	Argument string
}

func (e *missingArgumentError) Error() string {
	return "argument \"" + e.Argument + "\" of \"" + e.Field + "\" is required"
}

func (e *missingArgumentError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "BAD_USER_INPUT"}
}

func (r *Resolver) Users(ctx context.Context) (*[]*userResolver, error) {
	var users []model.User
	if err := r.store.FetchCollection(ctx, rest.Users, &users); err != nil {
		return nil, err
	}
	return r.userList(users), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ ID *string }) (*userResolver, error) {
	if args.ID == nil {
		return nil, &missingArgumentError{Field: "user", Argument: "id"}
	}
	return r.user(ctx, model.ID(*args.ID))
}

func (r *Resolver) Companies(ctx context.Context) (*[]*companyResolver, error) {
	var companies []model.Company
	if err := r.store.FetchCollection(ctx, rest.Companies, &companies); err != nil {
		return nil, err
	}
	res := make([]*companyResolver, len(companies))
	for i := range companies {
		res[i] = &companyResolver{r: r, c: &companies[i]}
	}
	return &res, nil
}

func (r *Resolver) Company(ctx context.Context, args struct{ ID *string }) (*companyResolver, error) {
	if args.ID == nil {
		return nil, &missingArgumentError{Field: "company", Argument: "id"}
	}
	return r.company(ctx, model.ID(*args.ID))
}

func (r *Resolver) Positions(ctx context.Context) (*[]*positionResolver, error) {
	var positions []model.Position
	if err := r.store.FetchCollection(ctx, rest.Positions, &positions); err != nil {
		return nil, err
	}
	res := make([]*positionResolver, len(positions))
	for i := range positions {
		res[i] = &positionResolver{r: r, p: &positions[i]}
	}
	return &res, nil
}

func (r *Resolver) Position(ctx context.Context, args struct{ ID *string }) (*positionResolver, error) {
	if args.ID == nil {
		return nil, &missingArgumentError{Field: "position", Argument: "id"}
	}
	return r.position(ctx, model.ID(*args.ID))
}

// userPayload is the body of user writes. Nil fields are left out so the store
// only touches what the caller supplied.
type userPayload struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Age        *int32  `json:"age,omitempty"`
	CompanyID  *string `json:"companyId,omitempty"`
	PositionID *string `json:"positionId,omitempty"`
}

func (r *Resolver) AddUser(ctx context.Context, args struct {
	FirstName  string
	LastName   string
	Age        int32
	CompanyID  *string
	PositionID *string
}) (*userResolver, error) {
	payload := userPayload{
		FirstName:  &args.FirstName,
		LastName:   &args.LastName,
		Age:        &args.Age,
		CompanyID:  args.CompanyID,
		PositionID: args.PositionID,
	}
	var u model.User
	if err := r.store.Create(ctx, rest.Users, payload, &u); err != nil {
		return nil, err
	}
	return &userResolver{r: r, u: &u}, nil
}

// DeleteUser keeps a long-standing quirk of this API: when the store answers
// with an HTTP error the failure is logged and an empty user is returned in
// place of a field error. When no answer arrives at all the field is null, also
// without an error. Clients rely on deleteUser never failing the request.
func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID string }) (*userResolver, error) {
	var u model.User
	err := r.store.Delete(ctx, rest.Users, args.ID, &u)
	if err == nil {
		return &userResolver{r: r, u: &u}, nil
	}

	gwlog.For(ctx, r.logger).Warn("deleteUser failed, returning empty result",
		zap.String("id", args.ID),
		zap.Error(err),
	)
	if gwerrors.HasResponse(err) {
		return &userResolver{r: r, u: &model.User{}}, nil
	}
	return nil, nil
}

// EditUser patches the supplied fields. The id selects the record and is not
// sent in the body.
func (r *Resolver) EditUser(ctx context.Context, args struct {
	ID         string
	FirstName  *string
	LastName   *string
	Age        *int32
	CompanyID  *string
	PositionID *string
}) (*userResolver, error) {
	payload := userPayload{
		FirstName:  args.FirstName,
		LastName:   args.LastName,
		Age:        args.Age,
		CompanyID:  args.CompanyID,
		PositionID: args.PositionID,
	}
	var u model.User
	if err := r.store.Update(ctx, rest.Users, args.ID, payload, &u); err != nil {
		return nil, err
	}
	return &userResolver{r: r, u: &u}, nil
}

func (r *Resolver) user(ctx context.Context, id model.ID) (*userResolver, error) {
	var u model.User
	if err := r.store.FetchOne(ctx, rest.Users, string(id), &u); err != nil {
		return nil, err
	}
	return &userResolver{r: r, u: &u}, nil
}

func (r *Resolver) company(ctx context.Context, id model.ID) (*companyResolver, error) {
	var c model.Company
	if err := r.store.FetchOne(ctx, rest.Companies, string(id), &c); err != nil {
		return nil, err
	}
	return &companyResolver{r: r, c: &c}, nil
}

func (r *Resolver) position(ctx context.Context, id model.ID) (*positionResolver, error) {
	var p model.Position
	if err := r.store.FetchOne(ctx, rest.Positions, string(id), &p); err != nil {
		return nil, err
	}
	return &positionResolver{r: r, p: &p}, nil
}

func (r *Resolver) userList(users []model.User) *[]*userResolver {
	res := make([]*userResolver, len(users))
	for i := range users {
		res[i] = &userResolver{r: r, u: &users[i]}
	}
	return &res
}
