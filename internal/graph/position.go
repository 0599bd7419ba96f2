package graph

import (
	"context"

	"github.com/graph-gophers/rest-gateway/internal/model"
	"github.com/graph-gophers/rest-gateway/internal/rest"
)

type positionResolver struct {
	r *Resolver
	p *model.Position
}

func (p *positionResolver) ID() *string {
	return p.p.ID.Ptr()
}

func (p *positionResolver) Title() *string {
	return p.p.Title
}

func (p *positionResolver) Users(ctx context.Context) (*[]*userResolver, error) {
	var users []model.User
	if err := p.r.store.FetchNestedCollection(ctx, rest.Positions, string(p.p.ID), rest.Users, &users); err != nil {
		return nil, err
	}
	return p.r.userList(users), nil
}
