package entity

type Room struct {
	Base
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Capacity    *int    `db:"capacity"`
	Floor       *string `db:"floor"`
	Building    *string `db:"building"`
	IsVisible   bool    `db:"is_visible"`
	ImageURL    *string `db:"image_url"`
	CreatedBy   int64   `db:"created_by"`
}
