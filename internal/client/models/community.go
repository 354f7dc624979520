package models

import "time"

type Discussion struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Author    *User     `json:"author,omitempty"`
	Replies   int       `json:"replies,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SpeakerApplication is sent as multipart form fields, so every field is a
// plain string.
type SpeakerApplication struct {
	Name       string
	Email      string
	Topic      string
	Abstract   string
	Experience string
	LinkedIn   string
}

// Fields returns the non-empty form fields of the application.
func (a SpeakerApplication) Fields() map[string]string {
	all := map[string]string{
		"name":       a.Name,
		"email":      a.Email,
		"topic":      a.Topic,
		"abstract":   a.Abstract,
		"experience": a.Experience,
		"linkedin":   a.LinkedIn,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}
