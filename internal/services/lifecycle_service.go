package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/akmatori/alertrelay/internal/database"
)

// ErrUnknownAction is returned for actions other than acknowledge and resolve
var ErrUnknownAction = errors.New("unknown lifecycle action")

// OutcomeKind classifies the result of a lifecycle transition
type OutcomeKind int

const (
	// OutcomeApplied means this call performed the transition
	OutcomeApplied OutcomeKind = iota
	// OutcomeAlreadyDone means someone else already performed it
	OutcomeAlreadyDone
	// OutcomeNotFound means the alert id is unknown
	OutcomeNotFound
	// OutcomePrecondition means the alert is not in a state that allows the action
	OutcomePrecondition
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyDone:
		return "already_done"
	case OutcomeNotFound:
		return "not_found"
	case OutcomePrecondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// Outcome is what the chat surface needs to answer a transition request.
// Applied outcomes carry the refreshed alert with its new text and controls,
// the others carry a notice for the acting user.
type Outcome struct {
	Kind     OutcomeKind
	Action   Action
	Alert    *database.Alert
	By       database.Actor
	Text     string
	Controls []Control
	Notice   string
}

// LifecycleService applies acknowledge and resolve transitions.
// It performs no network I/O; delivering the outcome is up to the caller.
type LifecycleService struct {
	repo *database.AlertRepository
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(repo *database.AlertRepository) *LifecycleService {
	return &LifecycleService{repo: repo}
}

// Transition applies action to the alert on behalf of actor. The only
// errors returned are storage failures and unknown actions; everything else
// is an Outcome.
func (s *LifecycleService) Transition(ctx context.Context, alertID uint, action Action, actor database.Actor) (*Outcome, error) {
	switch action {
	case ActionAcknowledge:
		return s.acknowledge(ctx, alertID, actor)
	case ActionResolve:
		return s.resolve(ctx, alertID, actor)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (s *LifecycleService) acknowledge(ctx context.Context, alertID uint, actor database.Actor) (*Outcome, error) {
	alert, outcome, err := s.load(ctx, alertID, ActionAcknowledge)
	if outcome != nil || err != nil {
		return outcome, err
	}
	if alert.Acknowledged {
		return alreadyAcknowledged(alert), nil
	}

	ok, err := s.repo.Acknowledge(ctx, alertID, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race; report whoever won
		log.Printf("LifecycleService: acknowledge of alert %d by %s lost to a concurrent update", alertID, actor.Display())
		alert, outcome, err = s.load(ctx, alertID, ActionAcknowledge)
		if outcome != nil || err != nil {
			return outcome, err
		}
		return alreadyAcknowledged(alert), nil
	}

	log.Printf("LifecycleService: alert %d acknowledged by %s", alertID, actor.Display())
	return s.applied(ctx, alertID, ActionAcknowledge, actor)
}

func (s *LifecycleService) resolve(ctx context.Context, alertID uint, actor database.Actor) (*Outcome, error) {
	alert, outcome, err := s.load(ctx, alertID, ActionResolve)
	if outcome != nil || err != nil {
		return outcome, err
	}
	if o := resolveBlocked(alert); o != nil {
		return o, nil
	}

	ok, err := s.repo.Resolve(ctx, alertID, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("LifecycleService: resolve of alert %d by %s lost to a concurrent update", alertID, actor.Display())
		alert, outcome, err = s.load(ctx, alertID, ActionResolve)
		if outcome != nil || err != nil {
			return outcome, err
		}
		if o := resolveBlocked(alert); o != nil {
			return o, nil
		}
		// Neither check fails on re-read; the winner is not visible yet
		return &Outcome{
			Kind:   OutcomeAlreadyDone,
			Action: ActionResolve,
			Alert:  alert,
			Notice: "This alert was just updated by someone else.",
		}, nil
	}

	log.Printf("LifecycleService: alert %d resolved by %s", alertID, actor.Display())
	return s.applied(ctx, alertID, ActionResolve, actor)
}

// load reads the alert, turning a missing row into a NotFound outcome
func (s *LifecycleService) load(ctx context.Context, alertID uint, action Action) (*database.Alert, *Outcome, error) {
	alert, err := s.repo.Get(ctx, alertID)
	if errors.Is(err, database.ErrAlertNotFound) {
		return nil, &Outcome{
			Kind:   OutcomeNotFound,
			Action: action,
			Notice: fmt.Sprintf("Alert #%d was not found.", alertID),
		}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return alert, nil, nil
}

func (s *LifecycleService) applied(ctx context.Context, alertID uint, action Action, actor database.Actor) (*Outcome, error) {
	alert, err := s.repo.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Kind:     OutcomeApplied,
		Action:   action,
		Alert:    alert,
		By:       actor,
		Text:     RenderAlert(alert),
		Controls: ControlsFor(alert),
	}, nil
}

func alreadyAcknowledged(alert *database.Alert) *Outcome {
	by := alert.AcknowledgedActor()
	return &Outcome{
		Kind:   OutcomeAlreadyDone,
		Action: ActionAcknowledge,
		Alert:  alert,
		By:     by,
		Notice: fmt.Sprintf("Alert #%d was already acknowledged by %s.", alert.ID, by.Display()),
	}
}

// resolveBlocked returns the outcome for an alert that cannot be resolved, or nil
func resolveBlocked(alert *database.Alert) *Outcome {
	switch {
	case alert.Resolved:
		by := alert.ResolvedActor()
		return &Outcome{
			Kind:   OutcomeAlreadyDone,
			Action: ActionResolve,
			Alert:  alert,
			By:     by,
			Notice: fmt.Sprintf("Alert #%d was already resolved by %s.", alert.ID, by.Display()),
		}
	case !alert.Acknowledged:
		return &Outcome{
			Kind:   OutcomePrecondition,
			Action: ActionResolve,
			Alert:  alert,
			Notice: fmt.Sprintf("Alert #%d must be acknowledged before it can be resolved.", alert.ID),
		}
	}
	return nil
}
