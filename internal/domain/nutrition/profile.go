// Package nutrition holds the user's nutrition profile and the deterministic
// calorie and macro target computation derived from it.
package nutrition

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sex selects the Mifflin-St Jeor constant
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel maps to a TDEE multiplier
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// Multiplier returns the TDEE multiplier, defaulting to sedentary
func (a ActivityLevel) Multiplier() float64 {
	if m, ok := activityMultipliers[a]; ok {
		return m
	}
	return activityMultipliers[ActivitySedentary]
}

// WeightTrend describes the user's current weight direction
type WeightTrend string

const (
	TrendLosing      WeightTrend = "losing"
	TrendMaintaining WeightTrend = "maintaining"
	TrendGaining     WeightTrend = "gaining"
)

// UnitSystem is the measurement system used in generated recipes
type UnitSystem string

const (
	UnitsImperial UnitSystem = "imperial"
	UnitsMetric   UnitSystem = "metric"
)

// MacroSplit is a protein/carbs/fat calorie ratio
type MacroSplit struct {
	Protein float64 `json:"protein" validate:"gte=0,lte=1"`
	Carbs   float64 `json:"carbs" validate:"gte=0,lte=1"`
	Fat     float64 `json:"fat" validate:"gte=0,lte=1"`
}

// Sum returns the total of the three ratios
func (s MacroSplit) Sum() float64 {
	return s.Protein + s.Carbs + s.Fat
}

// Profile is the read-only nutrition profile owned by the user
type Profile struct {
	UserID            string        `json:"user_id" validate:"required"`
	WeightKg          float64       `json:"weight_kg" validate:"omitempty,gte=30,lte=350"`
	HeightCm          float64       `json:"height_cm" validate:"omitempty,gte=100,lte=250"`
	Age               int           `json:"age" validate:"omitempty,gte=14,lte=100"`
	Sex               Sex           `json:"sex" validate:"omitempty,oneof=male female"`
	ActivityLevel     ActivityLevel `json:"activity_level" validate:"omitempty,oneof=sedentary light moderate active very_active"`
	DietaryPreference string        `json:"dietary_preference" validate:"required"`
	WeightTrend       WeightTrend   `json:"weight_trend" validate:"omitempty,oneof=losing maintaining gaining"`
	MacroOverride     *MacroSplit   `json:"macro_override,omitempty"`
	UnitSystem        UnitSystem    `json:"unit_system" validate:"omitempty,oneof=imperial metric"`
	MealsPerDay       int           `json:"meals_per_day" validate:"gte=2,lte=4"`
	SnacksPerDay      int           `json:"snacks_per_day" validate:"gte=0,lte=3"`
	CalorieGoal       int           `json:"calorie_goal" validate:"omitempty,gte=1000,lte=6000"`
}

var validate = validator.New()

// Validate checks field ranges and the dietary preference against the preset table
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, err.Error())
	}
	if _, ok := LookupPreset(p.DietaryPreference); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreference, p.DietaryPreference)
	}
	if p.MacroOverride != nil {
		if err := validate.Struct(p.MacroOverride); err != nil {
			return fmt.Errorf("%w: macro override: %s", ErrInvalidProfile, err.Error())
		}
		if p.MacroOverride.Sum() <= 0 {
			return fmt.Errorf("%w: macro override is empty", ErrInvalidProfile)
		}
	}
	return nil
}

// HasBodyMetrics reports whether BMR can be computed
func (p *Profile) HasBodyMetrics() bool {
	return p.WeightKg > 0 && p.HeightCm > 0 && p.Age > 0 && p.Sex != ""
}

// Units returns the unit system, imperial when unset
func (p *Profile) Units() UnitSystem {
	if p.UnitSystem == "" {
		return UnitsImperial
	}
	return p.UnitSystem
}

// PresetKey returns the normalized preset key of the dietary preference
func (p *Profile) PresetKey() string {
	return normalizePresetKey(p.DietaryPreference)
}

func normalizePresetKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
