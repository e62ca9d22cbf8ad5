package blueprint

import (
	"time"

	"github.com/google/uuid"
)

// PlanGeneratedEvent is raised once a plan has been persisted
type PlanGeneratedEvent struct {
	PlanID       uuid.UUID `json:"plan_id"`
	UserID       string    `json:"user_id"`
	WeekStart    string    `json:"week_start"`
	Tier         Tier      `json:"tier"`
	AttemptCount int       `json:"attempt_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

func (e PlanGeneratedEvent) EventName() string {
	return "plan.generated"
}

func (e PlanGeneratedEvent) OccurredAt() time.Time {
	return e.GeneratedAt
}

// PlanMacrosRecalculatedEvent is raised when the background pass finishes a plan
type PlanMacrosRecalculatedEvent struct {
	PlanID      uuid.UUID `json:"plan_id"`
	UserID      string    `json:"user_id"`
	WeekStart   string    `json:"week_start"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	CompletedAt time.Time `json:"completed_at"`
}

func (e PlanMacrosRecalculatedEvent) EventName() string {
	return "plan.macros_recalculated"
}

func (e PlanMacrosRecalculatedEvent) OccurredAt() time.Time {
	return e.CompletedAt
}

// NewPlanGeneratedEvent builds the event for a freshly saved plan
func NewPlanGeneratedEvent(p *Plan) PlanGeneratedEvent {
	return PlanGeneratedEvent{
		PlanID:       p.ID,
		UserID:       p.UserID,
		WeekStart:    p.WeekKey(),
		Tier:         p.Metadata.Tier,
		AttemptCount: p.Metadata.AttemptCount,
		GeneratedAt:  p.GeneratedAt,
	}
}
