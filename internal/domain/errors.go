package domain

import "errors"

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrEditConflict       = errors.New("edit conflict")
	ErrSeatAlreadyBooked  = errors.New("seat is already booked")
	ErrTicketAlreadyUsed  = errors.New("ticket has already been used")
	ErrBookingNotReserved = errors.New("booking is not in reserved status")
	ErrSeatNotInHall      = errors.New("seat does not belong to the session's hall")
	ErrDuplicateCode      = errors.New("booking code already exists")
	ErrDuplicateRow       = errors.New("row number already exists in this hall")
	ErrSessionOverlap     = errors.New("session overlaps with another session in the same hall")
	ErrMovieHasSessions   = errors.New("movie cannot be deleted while sessions exist")
	ErrHallHasSessions    = errors.New("hall cannot be deleted while sessions exist")
	ErrRowHasBookings     = errors.New("row cannot be deleted while bookings exist for its seats")
	ErrSessionHasBookings = errors.New("session cannot be deleted while bookings exist")
)
