package blueprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// State is a node of the generation state machine
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateSuccess
	StateMalformed
	StateTooShort
	StateTimeout
	StateRateLimited
	StateServerError
	StateExhausted
	StateDone
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateAttempting:  "attempting",
	StateSuccess:     "success",
	StateMalformed:   "malformed",
	StateTooShort:    "too_short",
	StateTimeout:     "timeout",
	StateRateLimited: "rate_limited",
	StateServerError: "server_error",
	StateExhausted:   "exhausted",
	StateDone:        "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Decision is what the machine does after an attempt outcome
type Decision int

const (
	DecisionRetry Decision = iota
	DecisionEscalate
	DecisionFinish
	DecisionExhaust
)

// transitions maps every attempt outcome to its default decision. The attempt
// budget may turn a retry into an escalation or exhaustion, see decide.
var transitions = map[State]Decision{
	StateSuccess:     DecisionFinish,
	StateMalformed:   DecisionRetry,
	StateTooShort:    DecisionRetry,
	StateTimeout:     DecisionRetry,
	StateRateLimited: DecisionRetry,
	StateServerError: DecisionRetry,
}

// RetryPolicy configures the orchestrator
type RetryPolicy struct {
	MaxAttempts        int           `mapstructure:"max_attempts"`
	PremiumAttempt     int           `mapstructure:"premium_attempt"`
	AttemptTimeout     time.Duration `mapstructure:"attempt_timeout"`
	RateLimitBackoff   time.Duration `mapstructure:"rate_limit_backoff"`
	ServerErrorBackoff time.Duration `mapstructure:"server_error_backoff"`
	MalformedBackoff   time.Duration `mapstructure:"malformed_backoff"`
	MinResponseLength  int           `mapstructure:"min_response_length"`
	MaxOutputTokens    int           `mapstructure:"max_output_tokens"`
	Temperature        float64       `mapstructure:"temperature"`
}

// DefaultRetryPolicy returns the production policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:        6,
		PremiumAttempt:     5,
		AttemptTimeout:     120 * time.Second,
		RateLimitBackoff:   10 * time.Second,
		ServerErrorBackoff: 2 * time.Second,
		MalformedBackoff:   500 * time.Millisecond,
		MinResponseLength:  500,
		MaxOutputTokens:    16000,
		Temperature:        0.7,
	}
}

// TierForAttempt returns the model tier for a zero-based attempt index
func (p RetryPolicy) TierForAttempt(attempt int) blueprint.Tier {
	if attempt >= p.PremiumAttempt {
		return blueprint.TierPremium
	}
	return blueprint.TierEconomy
}

// backoff returns the sleep before the attempt following outcome
func (p RetryPolicy) backoff(outcome State) time.Duration {
	switch outcome {
	case StateRateLimited:
		return p.RateLimitBackoff
	case StateServerError:
		return p.ServerErrorBackoff
	case StateMalformed, StateTooShort:
		return p.MalformedBackoff
	default:
		return 0
	}
}

// decide applies the transition table and the attempt budget
func (p RetryPolicy) decide(outcome State, attempt int) Decision {
	d, ok := transitions[outcome]
	if !ok {
		d = DecisionRetry
	}
	if d == DecisionFinish {
		return d
	}
	next := attempt + 1
	if next >= p.MaxAttempts {
		return DecisionExhaust
	}
	if p.TierForAttempt(next) != p.TierForAttempt(attempt) {
		return DecisionEscalate
	}
	return d
}

// Attempt is the transient record of one generation call
type Attempt struct {
	Index    int
	Tier     blueprint.Tier
	Outcome  State
	Duration time.Duration
	Err      error
}

// GenerationResult is the outcome of a successful run
type GenerationResult struct {
	Days         []blueprint.DayEntry
	Tier         blueprint.Tier
	AttemptCount int
	Model        string
	Usage        outbound.TokenUsage
	RepairPasses int
	Attempts     []Attempt
	Duration     time.Duration
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration)

func contextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Orchestrator drives the generator through the retry and escalation protocol
type Orchestrator struct {
	generator outbound.TextGenerator
	policy    RetryPolicy
	sleep     Sleeper
	metrics   outbound.PipelineMetrics
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(generator outbound.TextGenerator, policy RetryPolicy, metrics outbound.PipelineMetrics, logger *zap.Logger) *Orchestrator {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Orchestrator{
		generator: generator,
		policy:    policy,
		sleep:     contextSleep,
		metrics:   metricsOrNoop(metrics),
		logger:    logger.Named("orchestrator"),
	}
}

// WithSleeper replaces the backoff sleep, used by tests
func (o *Orchestrator) WithSleeper(s Sleeper) *Orchestrator {
	o.sleep = s
	return o
}

type callResult struct {
	resp *outbound.GenerationResponse
	err  error
}

// Run executes attempts sequentially until one yields a structurally valid
// seven-day document or the budget is spent. ctx bounds when new attempts may
// start; an attempt already in flight runs to completion under its own timeout.
func (o *Orchestrator) Run(ctx context.Context, prompt Prompt) (*GenerationResult, error) {
	ctx, span := otel.Tracer("nutriplan/blueprint").Start(ctx, "orchestrator.Run")
	defer span.End()

	started := time.Now()
	state := StateIdle
	result := &GenerationResult{}
	var lastErr error

loop:
	for attempt := 0; attempt < o.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			o.logger.Warn("Generation budget spent before next attempt",
				zap.Int("attempts", attempt),
				zap.Error(ctx.Err()),
			)
			state = StateTimeout
			lastErr = ctx.Err()
			break
		}

		tier := o.policy.TierForAttempt(attempt)
		rec, resp, days, passes := o.attempt(ctx, prompt, attempt, tier)
		result.Attempts = append(result.Attempts, rec)
		result.AttemptCount = attempt + 1
		state = rec.Outcome
		o.metrics.RecordGenerationAttempt(string(tier), state.String(), rec.Duration)

		switch o.policy.decide(state, attempt) {
		case DecisionFinish:
			result.Days = days
			result.Tier = tier
			result.Model = resp.Model
			result.Usage = resp.Usage
			result.RepairPasses = passes
			result.Duration = time.Since(started)
			o.metrics.RecordGeneration(string(tier), result.AttemptCount, true)
			o.metrics.RecordRepairPasses(passes)
			span.SetAttributes(
				attribute.String("blueprint.tier", string(tier)),
				attribute.Int("blueprint.attempts", result.AttemptCount),
			)
			o.logger.Info("Plan generated",
				zap.String("tier", string(tier)),
				zap.Int("attempts", result.AttemptCount),
				zap.Int("repair_passes", passes),
				zap.Duration("duration", result.Duration),
			)
			return result, nil

		case DecisionExhaust:
			lastErr = rec.Err
			break loop

		case DecisionEscalate:
			lastErr = rec.Err
			o.logger.Warn("Escalating to premium tier",
				zap.Int("next_attempt", attempt+1),
				zap.String("last_outcome", state.String()),
			)
			o.sleep(ctx, o.policy.backoff(state))

		default:
			lastErr = rec.Err
			o.sleep(ctx, o.policy.backoff(state))
		}
	}

	o.metrics.RecordGeneration(string(o.policy.TierForAttempt(result.AttemptCount-1)), result.AttemptCount, false)
	err := apperrors.NewGenerationExhaustedError(exhaustedCode(state), result.AttemptCount, lastErr).
		WithMetadata("last_outcome", state.String())
	span.RecordError(err)
	span.SetStatus(codes.Error, "generation exhausted")
	o.logger.Error("Generation exhausted",
		zap.Int("attempts", result.AttemptCount),
		zap.String("last_outcome", state.String()),
		zap.Error(lastErr),
	)
	return nil, err
}

// attempt performs one generation call raced against the attempt timeout and
// classifies the result
func (o *Orchestrator) attempt(ctx context.Context, prompt Prompt, index int, tier blueprint.Tier) (Attempt, *outbound.GenerationResponse, []blueprint.DayEntry, int) {
	rec := Attempt{Index: index, Tier: tier}
	start := time.Now()

	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.policy.AttemptTimeout)
	defer cancel()

	req := outbound.GenerationRequest{
		System:          prompt.System,
		Prompt:          prompt.User,
		Tier:            tier,
		MaxOutputTokens: o.policy.MaxOutputTokens,
		Temperature:     o.policy.Temperature,
	}

	done := make(chan callResult, 1)
	go func() {
		resp, err := o.generator.Generate(attemptCtx, req)
		done <- callResult{resp: resp, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		cancel()
		rec.Outcome = StateTimeout
		rec.Err = fmt.Errorf("attempt %d exceeded %s", index, o.policy.AttemptTimeout)
		rec.Duration = time.Since(start)
		o.logAttempt(rec)
		return rec, nil, nil, 0
	}

	if res.err != nil {
		rec.Outcome = classifyError(res.err)
		rec.Err = res.err
		rec.Duration = time.Since(start)
		o.logAttempt(rec)
		return rec, nil, nil, 0
	}

	if res.resp == nil || len(res.resp.Text) < o.policy.MinResponseLength {
		length := 0
		if res.resp != nil {
			length = len(res.resp.Text)
		}
		rec.Outcome = StateTooShort
		rec.Err = fmt.Errorf("response of %d bytes is below %d", length, o.policy.MinResponseLength)
		rec.Duration = time.Since(start)
		o.logAttempt(rec)
		return rec, nil, nil, 0
	}

	days, passes, err := parseDocument(res.resp.Text)
	if err != nil {
		rec.Outcome = StateMalformed
		rec.Err = err
		rec.Duration = time.Since(start)
		o.logAttempt(rec)
		return rec, nil, nil, passes
	}

	rec.Outcome = StateSuccess
	rec.Duration = time.Since(start)
	o.logAttempt(rec)
	return rec, res.resp, days, passes
}

func (o *Orchestrator) logAttempt(rec Attempt) {
	fields := []zap.Field{
		zap.Int("attempt", rec.Index),
		zap.String("tier", string(rec.Tier)),
		zap.String("outcome", rec.Outcome.String()),
		zap.Duration("duration", rec.Duration),
	}
	if rec.Err != nil {
		o.logger.Warn("Generation attempt failed", append(fields, zap.Error(rec.Err))...)
		return
	}
	o.logger.Debug("Generation attempt succeeded", fields...)
}

// classifyError maps a generator error to an attempt outcome
func classifyError(err error) State {
	var genErr *outbound.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case outbound.GenerationRateLimited:
			return StateRateLimited
		case outbound.GenerationTimeout:
			return StateTimeout
		default:
			return StateServerError
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StateTimeout
	}
	return StateServerError
}

// exhaustedCode picks the error code reported after the final failure
func exhaustedCode(last State) apperrors.ErrorCode {
	switch last {
	case StateTimeout:
		return apperrors.CodeDeadlineExceeded
	case StateRateLimited:
		return apperrors.CodeResourceExhausted
	default:
		return apperrors.CodeInternal
	}
}
