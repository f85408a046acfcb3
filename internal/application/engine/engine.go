package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/config"
	"github.com/garyjia/content-validation/internal/domain/entity"
	"github.com/garyjia/content-validation/internal/domain/event"
	"github.com/garyjia/content-validation/internal/domain/workflow"
)

// Content types placed in the validation context
const (
	ContentTypeProject = "project"
	ContentTypeChapter = "chapter"
)

// Keys the engine places in the validation context passed to validators
const (
	CtxProjectID         = "project_id"
	CtxValidationID      = "validation_id"
	CtxContentType       = "content_type"
	CtxValidationRules   = "validation_rules"
	CtxQualityThresholds = "quality_thresholds"
)

// Engine orchestrates registered validators over content and turns their
// findings into a quality verdict.
type Engine struct {
	provider   port.ContentGenerationProvider
	logger     *zap.Logger
	dispatcher dispatcher.Dispatcher
	clock      func() time.Time
	newMachine func(workflow.Verdict) workflow.StateMachine

	mu         sync.RWMutex
	cfg        *config.ValidationConfig
	ready      bool
	validators map[string]port.Validator
	order      []string

	activeMu sync.Mutex
	active   map[string]entity.ValidationStatus
}

// Option configures the engine
type Option func(*Engine)

// WithDispatcher publishes lifecycle events through d
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithClock replaces time.Now for timestamps and execution times
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates an engine. The provider is handed to validator factories.
func New(provider port.ContentGenerationProvider, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		provider:   provider,
		logger:     logger,
		clock:      time.Now,
		newMachine: workflow.BuildValidationStateMachine,
		validators: make(map[string]port.Validator),
		active:     make(map[string]entity.ValidationStatus),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize checks cfg and makes the engine ready. The engine keeps the
// pointer and re-reads it on every validation call.
func (e *Engine) Initialize(cfg *config.ValidationConfig) error {
	if err := cfg.Validate(); err != nil {
		e.logger.Error("Engine initialization failed", zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.cfg = cfg
	e.ready = true
	e.mu.Unlock()

	e.logger.Info("Engine initialized",
		zap.String("project_id", cfg.ProjectID),
		zap.Bool("parallel_processing", cfg.ParallelProcessing),
		zap.Bool("fail_fast", cfg.FailFast),
		zap.Float64("human_review_threshold", cfg.HumanReviewThreshold))
	return nil
}

// IsReady reports whether Initialize succeeded
func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Config returns the config the engine runs with, nil before Initialize
func (e *Engine) Config() *config.ValidationConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// RegisterValidator initializes v with its validator_configs entry and
// stores it under its id. Registering an id again replaces the previous
// validator and keeps its position.
func (e *Engine) RegisterValidator(v port.Validator) error {
	if v == nil {
		return &ValidationError{Op: "register_validator", Message: "validator is nil"}
	}

	e.mu.RLock()
	cfg, ready := e.cfg, e.ready
	e.mu.RUnlock()
	if !ready {
		return &ValidationError{Op: "register_validator", Err: ErrNotInitialized}
	}

	info := v.Info()
	if info.ID == "" {
		return &ValidationError{Op: "register_validator", Message: "validator id is empty"}
	}

	if err := v.Initialize(cfg.ConfigFor(info.ID)); err != nil {
		e.logger.Error("Validator initialization failed",
			zap.String("validator_id", info.ID),
			zap.Error(err))
		return &ConfigurationError{
			Field:   "validator_configs." + info.ID,
			Message: "validator initialization failed",
			Err:     err,
		}
	}

	e.mu.Lock()
	_, exists := e.validators[info.ID]
	e.validators[info.ID] = v
	if !exists {
		e.order = append(e.order, info.ID)
	}
	e.mu.Unlock()

	if exists {
		e.logger.Warn("Validator re-registered, previous instance replaced", zap.String("validator_id", info.ID))
	} else {
		e.logger.Info("Validator registered",
			zap.String("validator_id", info.ID),
			zap.String("version", info.Version))
	}
	return nil
}

// RegisterValidatorFactory builds a validator with the engine's provider and
// logger, then registers it
func (e *Engine) RegisterValidatorFactory(factory port.ValidatorFactory) error {
	if factory == nil {
		return &ValidationError{Op: "register_validator_factory", Message: "factory is nil"}
	}
	if !e.IsReady() {
		return &ValidationError{Op: "register_validator_factory", Err: ErrNotInitialized}
	}

	v, err := factory(e.provider, e.logger)
	if err != nil {
		return &ConfigurationError{Message: "validator factory failed", Err: err}
	}
	return e.RegisterValidator(v)
}

// UnregisterValidator removes a validator
func (e *Engine) UnregisterValidator(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.validators[id]; !ok {
		return &ValidatorNotFoundError{ValidatorID: id}
	}
	delete(e.validators, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	e.logger.Info("Validator unregistered", zap.String("validator_id", id))
	return nil
}

// GetValidator returns the validator registered under id
func (e *Engine) GetValidator(id string) (port.Validator, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.validators[id]
	if !ok {
		return nil, &ValidatorNotFoundError{ValidatorID: id}
	}
	return v, nil
}

// GetRegisteredValidators describes every validator in registration order
func (e *Engine) GetRegisteredValidators() []port.ValidatorInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]port.ValidatorInfo, 0, len(e.order))
	for _, id := range e.order {
		info := e.validators[id].Info()
		info.ID = id
		if info.SupportedTypes == nil {
			info.SupportedTypes = e.validators[id].SupportedContentTypes()
		}
		infos = append(infos, info)
	}
	return infos
}

// GetValidationStatus returns the status of an in-flight validation.
// Finished validations are forgotten and yield ErrValidationNotFound.
func (e *Engine) GetValidationStatus(validationID string) (entity.ValidationStatus, error) {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()

	status, ok := e.active[validationID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrValidationNotFound, validationID)
	}
	return status, nil
}

// ActiveValidations lists in-flight validation ids
func (e *Engine) ActiveValidations() []string {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()

	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateProject runs the enabled validators over project data. An empty
// projectID falls back to the configured one. Validator failures end up in
// the result; only engine misuse is returned as an error.
func (e *Engine) ValidateProject(ctx context.Context, data map[string]interface{}, projectID string) (*entity.ValidationResult, error) {
	return e.validate(ctx, data, nil, ContentTypeProject, projectID)
}

// ValidateChapter runs the enabled validators over chapter data. vctx is
// copied into the validation context; its project_id, when a string, names
// the project.
func (e *Engine) ValidateChapter(ctx context.Context, data map[string]interface{}, vctx map[string]interface{}) (*entity.ValidationResult, error) {
	projectID, _ := vctx[CtxProjectID].(string)
	return e.validate(ctx, data, vctx, ContentTypeChapter, projectID)
}

func (e *Engine) validate(
	ctx context.Context,
	content map[string]interface{},
	callerCtx map[string]interface{},
	contentType string,
	projectID string,
) (result *entity.ValidationResult, err error) {
	e.mu.RLock()
	cfg, ready := e.cfg, e.ready
	e.mu.RUnlock()
	if !ready {
		return nil, &ValidationError{Op: "validate_" + contentType, Err: ErrNotInitialized}
	}
	if projectID == "" {
		projectID = cfg.ProjectID
	}

	result = entity.NewValidationResult(uuid.NewString(), projectID, time.Time{})
	verdict := &runVerdict{result: result, threshold: cfg.HumanReviewThreshold}
	machine := e.newMachine(verdict)
	logger := e.logger.With(
		zap.String("validation_id", result.ValidationID),
		zap.String("content_type", contentType))

	if err := machine.Fire(ctx, workflow.TriggerStart); err != nil {
		return nil, fmt.Errorf("failed to start validation: %w", err)
	}
	result.Status = statusOf(machine.State())
	e.track(result.ValidationID, result.Status)

	defer e.untrack(result.ValidationID)
	defer e.publishCompletion(ctx, result, contentType, cfg.HumanReviewThreshold)
	defer func() {
		if r := recover(); r != nil {
			_ = machine.Fire(ctx, workflow.TriggerAbort)
			result.Status = entity.StatusError
			result.Summary.Error = fmt.Sprintf("orchestration failed: %v", r)
			logger.Error("Validation orchestration panicked",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	start := e.clock()
	result.Timestamp = start

	vctx := make(map[string]interface{}, len(callerCtx)+5)
	for k, v := range callerCtx {
		vctx[k] = v
	}
	vctx[CtxProjectID] = projectID
	vctx[CtxValidationID] = result.ValidationID
	vctx[CtxContentType] = contentType
	vctx[CtxValidationRules] = cfg.ValidationRules
	vctx[CtxQualityThresholds] = cfg.QualityThresholds

	selected := e.selectValidators(cfg, logger)
	strat := e.strategyFor(cfg, logger)

	logger.Info("Validation started",
		zap.String("project_id", projectID),
		zap.String("strategy", strat.name()),
		zap.Int("validators", len(selected)))
	e.publish(ctx, event.NewEvent(event.TypeValidationStarted, result.ValidationID, map[string]interface{}{
		event.KeyProjectID:     projectID,
		event.KeyContentType:   contentType,
		event.KeyValidatorsRun: len(selected),
	}))

	run := func(ctx context.Context, id string, v port.Validator) *entity.ValidatorResult {
		res := e.runValidator(ctx, id, v, content, vctx, logger)
		e.publishValidatorCompleted(ctx, result.ValidationID, res)
		return res
	}
	result.ValidatorResults = strat.execute(ctx, selected, run)

	agg := Aggregate(result.ValidatorResults, cfg.HumanReviewThreshold)
	result.OverallQualityScore = agg.Score
	result.HumanReviewRequired = agg.HumanReviewRequired
	result.Summary = agg.Summary
	result.TotalAIUsage = agg.TotalAIUsage
	result.TotalExecutionTime = e.clock().Sub(start)

	if err := machine.Fire(ctx, workflow.TriggerFinish); err != nil {
		_ = machine.Fire(ctx, workflow.TriggerAbort)
		result.Status = entity.StatusError
		result.Summary.Error = fmt.Sprintf("failed to finish validation: %v", err)
		logger.Error("Validation could not finish", zap.Error(err))
		return result, nil
	}
	result.Status = statusOf(machine.State())
	if result.Status == entity.StatusNeedsHumanReview {
		result.HumanReviewRequired = true
		result.Summary.HumanReviewRequired = true
	}

	logger.Info("Validation completed",
		zap.String("status", result.Status.String()),
		zap.Float64("quality_score", result.OverallQualityScore),
		zap.Int("findings", result.Summary.TotalFindings),
		zap.Duration("duration", result.TotalExecutionTime))

	return result, nil
}

// runValidator executes one validator, converting errors, nil results and
// panics into an ERROR result with a single CRITICAL system-error finding
func (e *Engine) runValidator(
	ctx context.Context,
	id string,
	v port.Validator,
	content, vctx map[string]interface{},
	logger *zap.Logger,
) (res *entity.ValidatorResult) {
	start := e.clock()

	defer func() {
		if r := recover(); r != nil {
			res = entity.NewErrorResult(id, &panicError{value: r})
			res.Findings[0] = res.Findings[0].
				WithMetadata("error_type", fmt.Sprintf("%T", r)).
				WithMetadata("panic", true)
			logger.Error("Validator panicked",
				zap.String("validator_id", id),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
		if res.ExecutionTime == 0 {
			res.ExecutionTime = e.clock().Sub(start)
		}
	}()

	out, err := v.Validate(ctx, content, vctx)
	if err != nil {
		logger.Warn("Validator failed",
			zap.String("validator_id", id),
			zap.Error(err))
		return entity.NewErrorResult(id, err)
	}
	if out == nil {
		logger.Warn("Validator returned no result", zap.String("validator_id", id))
		return entity.NewErrorResult(id, errNilResult)
	}
	if out.ValidatorID == "" {
		out.ValidatorID = id
	}
	normalizeFindings(out, logger)
	return out
}

// normalizeFindings replaces unknown severities and types in res so that
// scoring and the summary only ever see defined values
func normalizeFindings(res *entity.ValidatorResult, logger *zap.Logger) {
	for i, f := range res.Findings {
		normalized, changed := f.Normalized()
		if !changed {
			continue
		}
		logger.Warn("Validator returned finding with unknown severity or type",
			zap.String("validator_id", res.ValidatorID),
			zap.String("finding_id", f.ID),
			zap.String("severity", string(f.Severity)),
			zap.String("type", string(f.Type)),
			zap.String("normalized_severity", string(normalized.Severity)),
			zap.String("normalized_type", string(normalized.Type)))
		res.Findings[i] = normalized
	}
}

// selectValidators resolves the validators to run. An empty enabled list
// means every registered validator in registration order.
func (e *Engine) selectValidators(cfg *config.ValidationConfig, logger *zap.Logger) []registered {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(cfg.EnabledValidators) == 0 {
		selected := make([]registered, 0, len(e.order))
		for _, id := range e.order {
			selected = append(selected, registered{id: id, validator: e.validators[id]})
		}
		return selected
	}

	enabled := make(map[string]bool, len(cfg.EnabledValidators))
	selected := make([]registered, 0, len(cfg.EnabledValidators))
	for _, id := range cfg.EnabledValidators {
		if enabled[id] {
			continue
		}
		v, ok := e.validators[id]
		if !ok {
			logger.Warn("Enabled validator is not registered, skipping", zap.String("validator_id", id))
			continue
		}
		enabled[id] = true
		selected = append(selected, registered{id: id, validator: v})
	}

	for _, id := range e.order {
		if !enabled[id] {
			logger.Info("Validator not enabled, skipping", zap.String("validator_id", id))
		}
	}
	return selected
}

func (e *Engine) strategyFor(cfg *config.ValidationConfig, logger *zap.Logger) strategy {
	if cfg.ParallelProcessing {
		return &parallelStrategy{
			maxParallel:      cfg.MaxParallelRequests,
			cancelOnFailFast: cfg.FailFast && cfg.CancelOnFailFast,
			logger:           logger,
		}
	}
	return &sequentialStrategy{failFast: cfg.FailFast, logger: logger}
}

func (e *Engine) track(id string, status entity.ValidationStatus) {
	e.activeMu.Lock()
	e.active[id] = status
	e.activeMu.Unlock()
}

func (e *Engine) untrack(id string) {
	e.activeMu.Lock()
	delete(e.active, id)
	e.activeMu.Unlock()
}

func (e *Engine) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}

func (e *Engine) publishValidatorCompleted(ctx context.Context, validationID string, res *entity.ValidatorResult) {
	critical := 0
	for _, f := range res.Findings {
		if f.IsCritical() {
			critical++
		}
	}
	e.publish(ctx, event.NewEvent(event.TypeValidatorCompleted, validationID, map[string]interface{}{
		event.KeyValidatorID:      res.ValidatorID,
		event.KeyStatus:           res.Status.String(),
		event.KeyFindings:         len(res.Findings),
		event.KeyCriticalFindings: critical,
		event.KeyDurationSeconds:  res.ExecutionTime.Seconds(),
		event.KeyTokensUsed:       res.AIUsage.TokensUsed,
		event.KeyCost:             res.AIUsage.Cost,
	}))
}

func (e *Engine) publishCompletion(ctx context.Context, result *entity.ValidationResult, contentType string, threshold float64) {
	if e.dispatcher == nil {
		return
	}

	critical := result.Summary.FindingsBySeverity[entity.SeverityCritical]
	e.publish(ctx, event.NewEvent(event.TypeValidationCompleted, result.ValidationID, map[string]interface{}{
		event.KeyProjectID:           result.ProjectID,
		event.KeyContentType:         contentType,
		event.KeyStatus:              result.Status.String(),
		event.KeyQualityScore:        result.OverallQualityScore,
		event.KeyFindings:            result.Summary.TotalFindings,
		event.KeyCriticalFindings:    critical,
		event.KeyHumanReviewRequired: result.HumanReviewRequired,
		event.KeyValidatorsRun:       result.Summary.ValidatorsRun,
		event.KeyDurationSeconds:     result.TotalExecutionTime.Seconds(),
		event.KeyTokensUsed:          result.TotalAIUsage.TokensUsed,
		event.KeyCost:                result.TotalAIUsage.Cost,
		event.KeyError:               result.Summary.Error,
	}))

	if result.Status == entity.StatusNeedsHumanReview {
		e.publish(ctx, event.NewEvent(event.TypeReviewRequested, result.ValidationID, map[string]interface{}{
			event.KeyProjectID:        result.ProjectID,
			event.KeyContentType:      contentType,
			event.KeyQualityScore:     result.OverallQualityScore,
			event.KeyThreshold:        threshold,
			event.KeyFindings:         result.Summary.TotalFindings,
			event.KeyCriticalFindings: critical,
		}))
	}
}

// runVerdict answers the lifecycle guards from the aggregated result
type runVerdict struct {
	result    *entity.ValidationResult
	threshold float64
}

func (v *runVerdict) HasValidatorError() bool {
	return v.result.HasError()
}

func (v *runVerdict) NeedsHumanReview() bool {
	return v.result.OverallQualityScore < v.threshold || v.result.HasCritical()
}

func statusOf(s workflow.State) entity.ValidationStatus {
	return entity.ValidationStatus(s.String())
}

// IsNotFound reports whether err means a validation or validator is unknown
func IsNotFound(err error) bool {
	var nf *ValidatorNotFoundError
	return errors.Is(err, ErrValidationNotFound) || errors.As(err, &nf)
}
