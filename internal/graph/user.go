package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/graph-gophers/rest-gateway/internal/model"
	"github.com/graph-gophers/rest-gateway/internal/rest"
	"github.com/graph-gophers/rest-gateway/trace"
)

type userResolver struct {
	r *Resolver
	u *model.User
}

func (u *userResolver) ID() *string {
	return u.u.ID.Ptr()
}

func (u *userResolver) FirstName() *string {
	return u.u.FirstName
}

func (u *userResolver) LastName() *string {
	return u.u.LastName
}

func (u *userResolver) Age() *int32 {
	return u.u.Age
}

func (u *userResolver) CompanyID() *string {
	if id, ok := model.ForeignKey(u.u.CompanyID); ok {
		return id.Ptr()
	}
	return nil
}

func (u *userResolver) PositionID() *string {
	if id, ok := model.ForeignKey(u.u.PositionID); ok {
		return id.Ptr()
	}
	return nil
}

// Company is null without a store call when the user has no companyId.
func (u *userResolver) Company(ctx context.Context) (*companyResolver, error) {
	id, ok := model.ForeignKey(u.u.CompanyID)
	if !ok {
		return nil, nil
	}
	return u.r.company(ctx, id)
}

func (u *userResolver) Position(ctx context.Context) (*positionResolver, error) {
	id, ok := model.ForeignKey(u.u.PositionID)
	if !ok {
		return nil, nil
	}
	return u.r.position(ctx, id)
}

// Friends re-reads the user's record for its friend ids and then fetches every
// friend concurrently, one call per id. Nothing is batched or deduplicated.
// Any failed lookup fails the whole field.
func (u *userResolver) Friends(ctx context.Context) (*[]*userResolver, error) {
	if u.u.ID == "" {
		return nil, nil
	}

	var owner model.User
	if err := u.r.store.FetchOne(ctx, rest.Users, string(u.u.ID), &owner); err != nil {
		return nil, err
	}

	ids := owner.FriendIDs()
	if span := trace.SpanFromContext(ctx); span != nil {
		span.SetTag("friends.count", len(ids))
	}
	friends := make([]*userResolver, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if u.r.fanout > 0 {
		g.SetLimit(u.r.fanout)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var f model.User
			if err := u.r.store.FetchOne(gctx, rest.Users, string(id), &f); err != nil {
				return err
			}
			friends[i] = &userResolver{r: u.r, u: &f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &friends, nil
}
