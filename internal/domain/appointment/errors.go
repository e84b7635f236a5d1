package appointment

import "github.com/agendahq/backoffice/internal/domain/schedule"

// Booking and lifecycle error codes carried by httperr.BusinessError.
const (
	ErrConfigurationMissing = "configuration_missing"
	ErrNonWorkingDay        = string(schedule.ReasonNonWorkingDay)
	ErrHoliday              = string(schedule.ReasonHoliday)
	ErrDayBlocked           = string(schedule.ReasonDayBlocked)
	ErrOutOfWindow          = "out_of_window"
	ErrSlotConflict         = "slot_conflict"
	ErrClientNotFound       = "client_not_found"
	ErrNotAuthorized        = "not_authorized"
	ErrInvalidTransition    = "invalid_transition"

	ErrInvalidStatus     = "invalid_status"
	ErrInvalidDate       = "invalid_date"
	ErrBookingBusy       = "booking_busy"
	ErrProductNotFound   = "product_not_found"
	ErrInsufficientStock = "insufficient_stock"
	ErrInvalidQuantity   = "invalid_quantity"
	ErrInvalidRequest    = "invalid_request"
	ErrHolidayExists     = "holiday_exists"
)
