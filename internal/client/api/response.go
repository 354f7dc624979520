package api

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

// Response is the backend envelope.
type Response struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Errors     []json.RawMessage  `json:"errors,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// Decode unmarshals the envelope data into T. An absent data field yields
// the zero T.
func Decode[T any](r *Response) (T, error) {
	var v T
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return v, fmt.Errorf("%w: data: %v", ErrInvalidResponse, err)
	}
	return v, nil
}
