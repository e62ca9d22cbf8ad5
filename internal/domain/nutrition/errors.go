package nutrition

import "errors"

var (
	ErrInvalidProfile     = errors.New("invalid nutrition profile")
	ErrUnknownPreference  = errors.New("unknown dietary preference")
	ErrMissingCalorieGoal = errors.New("calorie goal is missing and cannot be derived from body metrics")
)
