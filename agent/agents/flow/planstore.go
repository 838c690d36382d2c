package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	planx "github.com/wareechai/trio-concierge/agent/plan"
	"github.com/wareechai/trio-concierge/agent/state"
)

const (
	planKeyPrefix = "flow:plan:"
	planTTL       = 30 * time.Minute
)

// PlanStore persists the active plan per domain and session, so a
// multi-turn plan keeps its id (and with it the execution context)
// across turns and process restarts.
type PlanStore struct {
	store state.Store
}

func NewPlanStore(store state.Store) *PlanStore {
	return &PlanStore{store: store}
}

func (ps *PlanStore) key(domain, sessionID string) string {
	return planKeyPrefix + domain + ":" + sessionID
}

// Load returns the stored plan, or nil when nothing usable is stored.
func (ps *PlanStore) Load(ctx context.Context, domain, sessionID string) (*planx.ActionPlan, error) {
	raw, err := ps.store.Get(ctx, ps.key(domain, sessionID))
	if errors.Is(err, state.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ap planx.ActionPlan
	if err := json.Unmarshal(raw, &ap); err != nil {
		return nil, nil
	}
	if ap.Validate() != nil {
		return nil, nil
	}
	return &ap, nil
}

func (ps *PlanStore) Save(ctx context.Context, domain, sessionID string, ap *planx.ActionPlan) error {
	if ap == nil {
		return errors.New("nil plan")
	}
	payload, err := json.Marshal(ap)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return ps.store.Set(ctx, ps.key(domain, sessionID), payload, planTTL)
}

func (ps *PlanStore) Clear(ctx context.Context, domain, sessionID string) error {
	return ps.store.Delete(ctx, ps.key(domain, sessionID))
}
