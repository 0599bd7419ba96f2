package graph

import (
	"context"

	"github.com/graph-gophers/rest-gateway/internal/model"
	"github.com/graph-gophers/rest-gateway/internal/rest"
)

type companyResolver struct {
	r *Resolver
	c *model.Company
}

func (c *companyResolver) ID() *string {
	return c.c.ID.Ptr()
}

func (c *companyResolver) Name() *string {
	return c.c.Name
}

func (c *companyResolver) Description() *string {
	return c.c.Description
}

// Users asks the store for the company's users; filtering happens upstream.
func (c *companyResolver) Users(ctx context.Context) (*[]*userResolver, error) {
	var users []model.User
	if err := c.r.store.FetchNestedCollection(ctx, rest.Companies, string(c.c.ID), rest.Users, &users); err != nil {
		return nil, err
	}
	return c.r.userList(users), nil
}
