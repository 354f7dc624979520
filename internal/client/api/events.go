package api

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

type EventsAPI struct {
	c *Client
}

func NewEventsAPI(c *Client) *EventsAPI {
	return &EventsAPI{c: c}
}

// List fetches one page of events. query carries extra filters such as
// category or search; nil values are dropped.
func (e *EventsAPI) List(ctx context.Context, page, limit int, query Params) (models.Page[models.Event], error) {
	return listPage[models.Event](ctx, e.c, "/events", page, limit, query)
}

func (e *EventsAPI) Get(ctx context.Context, id string) (*models.Event, error) {
	resp, err := e.c.Get(ctx, "/events/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	ev, err := Decode[models.Event](resp)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Register signs the caller up for an event and returns the backend message.
func (e *EventsAPI) Register(ctx context.Context, id string, form models.EventRegistration) (string, error) {
	resp, err := e.c.Post(ctx, "/events/"+url.PathEscape(id)+"/register", form)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func listPage[T any](ctx context.Context, c *Client, endpoint string, page, limit int, query Params) (models.Page[T], error) {
	params := Params{"page": page, "limit": limit}
	for k, v := range query {
		params[k] = v
	}

	resp, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return models.Page[T]{}, err
	}
	items, err := Decode[[]T](resp)
	if err != nil {
		return models.Page[T]{}, err
	}
	return models.Page[T]{Items: items, Pagination: resp.Pagination}, nil
}
