package api

import (
	"context"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

type SpeakersAPI struct {
	c *Client
}

func NewSpeakersAPI(c *Client) *SpeakersAPI {
	return &SpeakersAPI{c: c}
}

// Apply submits a speaker application as a multipart form. attachment may
// be nil, in which case only the fields are sent.
func (s *SpeakersAPI) Apply(ctx context.Context, app models.SpeakerApplication, attachment *File) (string, error) {
	var f File
	if attachment != nil {
		f = *attachment
		if f.Field == "" {
			f.Field = "resume"
		}
	}
	resp, err := s.c.UploadFile(ctx, "/speakers/apply", f, app.Fields())
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
