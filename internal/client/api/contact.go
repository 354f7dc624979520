package api

import (
	"context"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

type ContactAPI struct {
	c *Client
}

func NewContactAPI(c *Client) *ContactAPI {
	return &ContactAPI{c: c}
}

func (a *ContactAPI) Send(ctx context.Context, msg models.ContactMessage) (string, error) {
	resp, err := a.c.Post(ctx, "/contact", msg)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Subscribe adds email to the newsletter list.
func (a *ContactAPI) Subscribe(ctx context.Context, email string) (string, error) {
	resp, err := a.c.Post(ctx, "/newsletter/subscribe", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
