package request

// CreateBookingRequest is the body of POST /api/calendar. UserID defaults to the caller;
// only admins may book on behalf of someone else.
type CreateBookingRequest struct {
	UserID      int64  `json:"user_id" validate:"omitempty,gt=0"`
	RoomID      int64  `json:"room_id" validate:"required,gt=0"`
	SlotDate    string `json:"slot_date" validate:"required,calendardate"`
	StartTime   string `json:"start_time" validate:"required,timeofday"`
	EndTime     string `json:"end_time" validate:"required,timeofday"`
	Reason      string `json:"reason" validate:"required,max=500"`
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency" validate:"omitempty,oneof=daily weekly"`
	UntilDate   string `json:"until_date" validate:"omitempty,calendardate"`
}

const (
	ActionAccept        = "accept"
	ActionReject        = "reject"
	ActionUpdateEndDate = "update_end_date"
	ActionUnblock       = "unblock"
	ActionBlock         = "block"
)

// ApprovalRequest is the body of PUT /api/calendar. Exactly one of BookingID, BookingIDs
// and PatternID names the target.
type ApprovalRequest struct {
	Action     string  `json:"action" validate:"required,oneof=accept reject update_end_date"`
	BookingID  int64   `json:"booking_id" validate:"omitempty,gt=0"`
	BookingIDs []int64 `json:"booking_ids" validate:"omitempty,dive,gt=0"`
	PatternID  int64   `json:"pattern_id" validate:"omitempty,gt=0"`
	EndDate    string  `json:"end_date" validate:"omitempty,calendardate"`
}

// SlotPatchRequest is the body of PATCH /api/calendar: either {action: "unblock",
// timeslot_id} or a block request.
type SlotPatchRequest struct {
	Action     string  `json:"action"`
	TimeslotID int64   `json:"timeslot_id"`
	RoomID     int64   `json:"room_id"`
	SlotDate   string  `json:"slot_date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Reason     *string `json:"reason"`
}

func (r *SlotPatchRequest) Block() *BlockSlotRequest {
	return &BlockSlotRequest{
		RoomID:    r.RoomID,
		SlotDate:  r.SlotDate,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Reason:    r.Reason,
	}
}

type BlockSlotRequest struct {
	RoomID    int64   `json:"room_id" validate:"required,gt=0"`
	SlotDate  string  `json:"slot_date" validate:"required,calendardate"`
	StartTime string  `json:"start_time" validate:"required,timeofday"`
	EndTime   string  `json:"end_time" validate:"required,timeofday"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
}
