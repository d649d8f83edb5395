package usecase

import (
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/dto/response"
	"room-reservation/pkg/dateutil"
)

func bookingCreated(b *entity.Booking, ts *entity.Timeslot) response.BookingCreated {
	return response.BookingCreated{
		BookingID:     b.ID,
		TimeslotID:    ts.ID,
		BookingStatus: b.Status.String(),
		SlotDate:      dateutil.FormatDate(ts.SlotDate),
		StartTime:     ts.StartTime.String(),
		EndTime:       ts.EndTime.String(),
	}
}

func toTimeslotResult(ts *entity.Timeslot) *response.TimeslotResult {
	return &response.TimeslotResult{
		TimeslotID:    ts.ID,
		RoomID:        ts.RoomID,
		SlotDate:      dateutil.FormatDate(ts.SlotDate),
		StartTime:     ts.StartTime.String(),
		EndTime:       ts.EndTime.String(),
		Status:        ts.Status.String(),
		BlockedReason: ts.BlockedReason,
	}
}

func toCalendarSlot(e *entity.CalendarEntry) response.CalendarSlot {
	slot := response.CalendarSlot{
		TimeslotID:    e.Timeslot.ID,
		RoomID:        e.Timeslot.RoomID,
		RoomName:      e.RoomName,
		SlotDate:      dateutil.FormatDate(e.Timeslot.SlotDate),
		StartTime:     e.Timeslot.StartTime.String(),
		EndTime:       e.Timeslot.EndTime.String(),
		Status:        e.Timeslot.Status.String(),
		BlockedReason: e.Timeslot.BlockedReason,
		BookingID:     e.BookingID,
		Reason:        e.Reason,
		UserID:        e.UserID,
		UserName:      e.UserName,
		IsRecurring:   e.IsRecurring,
		PatternID:     e.PatternID,
	}
	if e.BookingStatus != nil {
		status := e.BookingStatus.String()
		slot.BookingStatus = &status
	}
	return slot
}

func toUserBooking(e *entity.UserBookingEntry) response.UserBooking {
	return response.UserBooking{
		BookingID:     e.Booking.ID,
		TimeslotID:    e.Timeslot.ID,
		RoomID:        e.Timeslot.RoomID,
		RoomName:      e.RoomName,
		SlotDate:      dateutil.FormatDate(e.Timeslot.SlotDate),
		StartTime:     e.Timeslot.StartTime.String(),
		EndTime:       e.Timeslot.EndTime.String(),
		Reason:        e.Booking.Reason,
		BookingStatus: e.Booking.Status.String(),
		IsRecurring:   e.Booking.IsRecurring,
		PatternID:     e.Booking.PatternID,
		Frequency:     frequencyString(e.Frequency),
		EndDate:       dateString(e.EndDate),
		UntilDate:     dateString(e.UntilDate),
		CreatedAt:     e.Booking.CreatedAt,
	}
}

func toPendingRequest(e *entity.PendingRequest) response.PendingRequest {
	return response.PendingRequest{
		BookingID:   e.Booking.ID,
		TimeslotID:  e.Timeslot.ID,
		RoomID:      e.Timeslot.RoomID,
		RoomName:    e.RoomName,
		SlotDate:    dateutil.FormatDate(e.Timeslot.SlotDate),
		StartTime:   e.Timeslot.StartTime.String(),
		EndTime:     e.Timeslot.EndTime.String(),
		Reason:      e.Booking.Reason,
		UserID:      e.Booking.UserID,
		UserName:    e.UserName,
		UserEmail:   e.UserEmail,
		IsRecurring: e.Booking.IsRecurring,
		PatternID:   e.Booking.PatternID,
		Frequency:   frequencyString(e.Frequency),
		UntilDate:   dateString(e.UntilDate),
		CreatedAt:   e.Booking.CreatedAt,
	}
}

func toRoomResponse(r *entity.Room) response.RoomResponse {
	return response.RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		Floor:       r.Floor,
		Building:    r.Building,
		IsVisible:   r.IsVisible,
		ImageURL:    r.ImageURL,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func frequencyString(f *dateutil.Frequency) *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

func dateString(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := dateutil.FormatDate(*d)
	return &s
}
