package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	contextKeyPrefix = "exec:ctx:"
	contextTTL       = 30 * time.Minute
)

// ExecutionContext is the cross-turn progress record of one plan:
// which steps finished and what data the user has supplied so far.
type ExecutionContext struct {
	PlanID         string            `json:"plan_id"`
	CompletedSteps []string          `json:"completed_steps,omitempty"`
	CollectedData  map[string]string `json:"collected_data,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewExecutionContext(planID string) *ExecutionContext {
	return &ExecutionContext{
		PlanID:        planID,
		CollectedData: map[string]string{},
	}
}

// MarkCompleted records a step as done, idempotently.
func (ec *ExecutionContext) MarkCompleted(stepID string) {
	for _, id := range ec.CompletedSteps {
		if id == stepID {
			return
		}
	}
	ec.CompletedSteps = append(ec.CompletedSteps, stepID)
}

// CompletedSet returns the completed steps in lookup form.
func (ec *ExecutionContext) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(ec.CompletedSteps))
	for _, id := range ec.CompletedSteps {
		set[id] = true
	}
	return set
}

// Collect stores one piece of user-supplied data.
func (ec *ExecutionContext) Collect(field, value string) {
	if ec.CollectedData == nil {
		ec.CollectedData = map[string]string{}
	}
	ec.CollectedData[field] = value
}

// ContextStore persists ExecutionContexts per domain and session.
type ContextStore struct {
	store Store
	now   func() time.Time
}

func NewContextStore(store Store) *ContextStore {
	return &ContextStore{store: store, now: time.Now}
}

func (cs *ContextStore) key(domain, sessionID string) string {
	return contextKeyPrefix + domain + ":" + sessionID
}

// Load returns the stored context for a plan, or a fresh one when
// nothing is stored, the payload is corrupt, or the stored context
// belongs to a different plan.
func (cs *ContextStore) Load(ctx context.Context, domain, sessionID, planID string) (*ExecutionContext, error) {
	raw, err := cs.store.Get(ctx, cs.key(domain, sessionID))
	if errors.Is(err, ErrKeyNotFound) {
		return NewExecutionContext(planID), nil
	}
	if err != nil {
		return nil, err
	}

	var ec ExecutionContext
	if err := json.Unmarshal(raw, &ec); err != nil {
		return NewExecutionContext(planID), nil
	}
	if planID != "" && ec.PlanID != planID {
		return NewExecutionContext(planID), nil
	}
	if ec.CollectedData == nil {
		ec.CollectedData = map[string]string{}
	}
	return &ec, nil
}

func (cs *ContextStore) Save(ctx context.Context, domain, sessionID string, ec *ExecutionContext) error {
	if ec == nil {
		return errors.New("nil execution context")
	}
	ec.UpdatedAt = cs.now().UTC()

	payload, err := json.Marshal(ec)
	if err != nil {
		return fmt.Errorf("marshal execution context: %w", err)
	}
	return cs.store.Set(ctx, cs.key(domain, sessionID), payload, contextTTL)
}

func (cs *ContextStore) Clear(ctx context.Context, domain, sessionID string) error {
	return cs.store.Delete(ctx, cs.key(domain, sessionID))
}
