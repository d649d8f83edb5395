package response

import "time"

type RoomResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Floor       *string   `json:"floor,omitempty"`
	Building    *string   `json:"building,omitempty"`
	IsVisible   bool      `json:"is_visible"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
