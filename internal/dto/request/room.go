package request

type CreateRoomRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
	Floor       *string `json:"floor" validate:"omitempty,max=50"`
	Building    *string `json:"building" validate:"omitempty,max=100"`
	IsVisible   *bool   `json:"is_visible"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}
