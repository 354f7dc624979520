package models

import "time"

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	Attendees   int       `json:"attendees,omitempty"`
	IsOnline    bool      `json:"isOnline,omitempty"`
}

type EventRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
