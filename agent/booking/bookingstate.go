package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	statex "github.com/wareechai/trio-concierge/agent/state"
)

// Step is a stage of the booking conversation flow.
type Step string

const (
	StepInitial                 Step = "initial"
	StepRestaurantSelection     Step = "restaurant_selection"
	StepRestaurantConfirmation  Step = "restaurant_confirmation"
	StepAvailabilityCheck       Step = "availability_check"
	StepDateTimeSelection       Step = "date_time_selection"
	StepCollectingGuestCount    Step = "collecting_guest_count"
	StepCollectingName          Step = "collecting_name"
	StepCollectingEmail         Step = "collecting_email"
	StepCollectingPhone         Step = "collecting_phone"
	StepConfirmation            Step = "confirmation"
	StepCompleted               Step = "completed"
)

var knownSteps = map[Step]struct{}{
	StepInitial:                {},
	StepRestaurantSelection:    {},
	StepRestaurantConfirmation: {},
	StepAvailabilityCheck:      {},
	StepDateTimeSelection:      {},
	StepCollectingGuestCount:   {},
	StepCollectingName:         {},
	StepCollectingEmail:        {},
	StepCollectingPhone:        {},
	StepConfirmation:           {},
	StepCompleted:              {},
}

// validTransitions is the legal step graph. Confirmation may loop back
// to guest-count collection so the user can fix details, and a
// completed flow may start over.
var validTransitions = map[Step][]Step{
	StepInitial:                {StepRestaurantSelection, StepRestaurantConfirmation},
	StepRestaurantSelection:    {StepRestaurantConfirmation, StepAvailabilityCheck},
	StepRestaurantConfirmation: {StepAvailabilityCheck, StepRestaurantSelection},
	StepAvailabilityCheck:      {StepDateTimeSelection},
	StepDateTimeSelection:      {StepCollectingGuestCount},
	StepCollectingGuestCount:   {StepCollectingName},
	StepCollectingName:         {StepCollectingEmail},
	StepCollectingEmail:        {StepCollectingPhone},
	StepCollectingPhone:        {StepConfirmation},
	StepConfirmation:           {StepCompleted, StepCollectingGuestCount},
	StepCompleted:              {StepInitial},
}

// ValidStepTransition reports whether moving current -> next is legal.
func ValidStepTransition(current, next Step) bool {
	for _, allowed := range validTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// State is the conversation state of one booking flow.
type State struct {
	SessionID string `json:"session_id"`
	Step      Step   `json:"step"`

	RestaurantID   string       `json:"restaurant_id,omitempty"`
	RestaurantName string       `json:"restaurant_name,omitempty"`
	FuzzyMatches   []Restaurant `json:"fuzzy_matches,omitempty"`

	AvailableSlots []AvailabilitySlot `json:"available_slots,omitempty"`

	SelectedDate string `json:"selected_date,omitempty"`
	SelectedTime string `json:"selected_time,omitempty"`
	GuestCount   int    `json:"guest_count,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`

	ConfirmationNumber string `json:"confirmation_number,omitempty"`
}

func NewState(sessionID string) *State {
	return &State{SessionID: sessionID, Step: StepInitial}
}

func (s *State) Validate() error {
	if s.SessionID == "" {
		return errors.New("booking state missing session id")
	}
	if _, ok := knownSteps[s.Step]; !ok {
		return fmt.Errorf("unknown booking step %q", s.Step)
	}
	return nil
}

const (
	stateKeyPrefix = "booking:state:"
	stateTTL       = 30 * time.Minute
	// completedTTL expires a finished booking's state shortly after
	// completion so the next turn starts a fresh flow.
	completedTTL = 5 * time.Second
)

// StateManager persists booking conversation state per session.
type StateManager struct {
	store statex.Store
}

func NewStateManager(store statex.Store) *StateManager {
	return &StateManager{store: store}
}

func (m *StateManager) key(sessionID string) string {
	return stateKeyPrefix + sessionID
}

// Get loads the state for a session. Missing, corrupt, or invalid
// payloads all reset to a fresh initial state.
func (m *StateManager) Get(ctx context.Context, sessionID string) *State {
	raw, err := m.store.Get(ctx, m.key(sessionID))
	if err != nil {
		if !errors.Is(err, statex.ErrKeyNotFound) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("booking state load failed, resetting")
		}
		return NewState(sessionID)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("corrupt booking state, resetting")
		return NewState(sessionID)
	}
	if err := st.Validate(); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("invalid booking state, resetting")
		return NewState(sessionID)
	}
	return &st
}

// Save persists the state. A completed state is written with a short
// TTL so it self-expires instead of needing a delayed reset.
func (m *StateManager) Save(ctx context.Context, st *State) error {
	if st == nil {
		return errors.New("nil booking state")
	}
	if err := st.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal booking state: %w", err)
	}

	ttl := stateTTL
	if st.Step == StepCompleted {
		ttl = completedTTL
	}
	if err := m.store.Set(ctx, m.key(st.SessionID), payload, ttl); err != nil {
		return err
	}

	log.Debug().Str("session_id", st.SessionID).Str("step", string(st.Step)).Msg("booking state saved")
	return nil
}

// Transition validates and applies a step change before saving.
func (m *StateManager) Transition(ctx context.Context, st *State, next Step) error {
	if !ValidStepTransition(st.Step, next) {
		return fmt.Errorf("illegal booking transition %s -> %s", st.Step, next)
	}
	st.Step = next
	return m.Save(ctx, st)
}

// Reset drops the stored state for a session.
func (m *StateManager) Reset(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, m.key(sessionID))
}
