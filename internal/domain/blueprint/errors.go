package blueprint

import "errors"

var (
	ErrInvalidDayCount  = errors.New("plan must contain exactly 7 days")
	ErrMissingUser      = errors.New("plan has no owner")
	ErrInvalidWeekStart = errors.New("week start must be an ISO date on a Monday")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrMealNotFound     = errors.New("meal not found in plan")
)
