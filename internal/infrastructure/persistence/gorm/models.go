// Package gorm provides GORM model definitions and repositories for plans and profiles
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanModel represents the GORM model for weekly plans. Meals live in their
// own rows so a single meal's macros can be updated without rewriting the plan.
type PlanModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID        string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_plans_user_week,priority:1"`
	WeekStart     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_plans_user_week,priority:2;index"`
	DailyCalories int       `gorm:"not null"`

	TargetProtein int `gorm:"column:target_protein_g"`
	TargetCarbs   int `gorm:"column:target_carbs_g"`
	TargetFat     int `gorm:"column:target_fat_g"`

	DayNames      StringSlice                    `gorm:"type:json"`
	ShoppingList  JSONColumn[ShoppingLists]      `gorm:"type:json"`
	UnitSystem    string                         `gorm:"type:varchar(20);not null"`
	HouseholdSize int                            `gorm:"default:4"`
	Deviation     JSONColumn[map[string]float64] `gorm:"column:macro_deviation;type:json"`

	// Generation metadata
	Tier             string `gorm:"type:varchar(20);index"`
	AttemptCount     int
	Model            string `gorm:"type:varchar(100)"`
	PromptTokens     int
	CompletionTokens int
	RepairPasses     int
	DurationMs       int64

	GeneratedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Meals []MealModel `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// MealModel is one meal or snack of a plan
type MealModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	PlanID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_meal_ref,priority:1"`
	DayIndex  int       `gorm:"not null;uniqueIndex:idx_meal_ref,priority:2"`
	Slot      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_meal_ref,priority:3"`
	SlotIndex int       `gorm:"not null;default:0;uniqueIndex:idx_meal_ref,priority:4"`
	Position  int       `gorm:"not null"`

	Name         string      `gorm:"type:varchar(255);not null"`
	Ingredients  StringSlice `gorm:"type:json"`
	Instructions StringSlice `gorm:"type:json"`

	Calories float64
	ProteinG float64 `gorm:"column:protein_g"`
	CarbsG   float64 `gorm:"column:carbs_g"`
	FatG     float64 `gorm:"column:fat_g"`
}

// ProfileModel represents the GORM model for nutrition profiles
type ProfileModel struct {
	UserID            string `gorm:"type:varchar(64);primaryKey"`
	WeightKg          float64
	HeightCm          float64
	Age               int
	Sex               string `gorm:"type:varchar(10)"`
	ActivityLevel     string `gorm:"type:varchar(20)"`
	DietaryPreference string `gorm:"type:varchar(50);not null"`
	WeightTrend       string `gorm:"type:varchar(20)"`
	UnitSystem        string `gorm:"type:varchar(20)"`
	MealsPerDay       int    `gorm:"default:3"`
	SnacksPerDay      int    `gorm:"default:0"`
	CalorieGoal       int

	OverrideProtein *float64
	OverrideCarbs   *float64
	OverrideFat     *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShoppingItemRecord is the stored form of one shopping list entry
type ShoppingItemRecord struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// ShoppingLists maps category names to stored items
type ShoppingLists map[string][]ShoppingItemRecord

// StringSlice custom type for handling string arrays
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// JSONColumn stores any JSON-encodable value in a json column
type JSONColumn[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface
func (j *JSONColumn[T]) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &j.Data)
	case string:
		return json.Unmarshal([]byte(v), &j.Data)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONColumn[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// BeforeCreate hook for PlanModel
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (PlanModel) TableName() string {
	return "plans"
}

func (MealModel) TableName() string {
	return "plan_meals"
}

func (ProfileModel) TableName() string {
	return "nutrition_profiles"
}

// Models lists every model for AutoMigrate
func Models() []interface{} {
	return []interface{}{&ProfileModel{}, &PlanModel{}, &MealModel{}}
}
