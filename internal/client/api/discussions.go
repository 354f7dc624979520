package api

import (
	"context"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

type DiscussionsAPI struct {
	c *Client
}

func NewDiscussionsAPI(c *Client) *DiscussionsAPI {
	return &DiscussionsAPI{c: c}
}

func (d *DiscussionsAPI) List(ctx context.Context, page, limit int, query Params) (models.Page[models.Discussion], error) {
	return listPage[models.Discussion](ctx, d.c, "/discussions", page, limit, query)
}

// Create posts a new discussion. The backend echoes the stored record.
func (d *DiscussionsAPI) Create(ctx context.Context, in models.Discussion) (*models.Discussion, error) {
	resp, err := d.c.Post(ctx, "/discussions", in)
	if err != nil {
		return nil, err
	}
	out, err := Decode[models.Discussion](resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
