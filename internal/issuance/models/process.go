package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	credmodels "vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
)

// State is the lifecycle state of an issuance process. The numeric codes are
// persisted and ordered.
type State int

const (
	StateInitial    State = 50
	StateCreated    State = 100
	StateApproved   State = 200
	StateGenerating State = 250
	StateDelivering State = 300
	StateDelivered  State = 400
	StateErrored    State = 900
)

var stateNames = map[State]string{
	StateInitial:    "INITIAL",
	StateCreated:    "CREATED",
	StateApproved:   "APPROVED",
	StateGenerating: "GENERATING",
	StateDelivering: "DELIVERING",
	StateDelivered:  "DELIVERED",
	StateErrored:    "ERRORED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// IsTerminal reports whether the engine will never pick the process up again.
func (s State) IsTerminal() bool {
	return s == StateDelivered || s == StateErrored
}

// ParseState accepts a state name, case-insensitively.
func ParseState(name string) (State, error) {
	for state, n := range stateNames {
		if strings.EqualFold(n, name) {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown issuance state %q", name)
}

// Process tracks one issuance request from approval to delivery.
// Lease bookkeeping lives in the store, not here.
type Process struct {
	ID                    string                                 `json:"id"`
	ParticipantContextID  string                                 `json:"participantContextId"`
	HolderID              string                                 `json:"holderId"`
	HolderPID             string                                 `json:"holderPid"`
	State                 State                                  `json:"state"`
	StateCount            int                                    `json:"stateCount"`
	StateTimestamp        time.Time                              `json:"stateTimestamp"`
	CredentialDefinitions []string                               `json:"credentialDefinitions,omitempty"`
	CredentialFormats     map[string]credmodels.CredentialFormat `json:"credentialFormats"`
	Claims                map[string]any                         `json:"claims"`
	ErrorDetail           string                                 `json:"errorDetail,omitempty"`
	CreatedAt             time.Time                              `json:"createdAt"`
	UpdatedAt             time.Time                              `json:"updatedAt"`
}

// NewProcess builds a process in CREATED.
func NewProcess(id, participantContextID, holderID, holderPID string, formats map[string]credmodels.CredentialFormat, claims map[string]any, now time.Time) (*Process, error) {
	p := &Process{
		ID:                   id,
		ParticipantContextID: participantContextID,
		HolderID:             holderID,
		HolderPID:            holderPID,
		State:                StateCreated,
		StateCount:           1,
		StateTimestamp:       now,
		CredentialFormats:    formats,
		Claims:               claims,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Process) Validate() error {
	switch {
	case p.ID == "":
		return dErrors.New(dErrors.CodeValidation, "issuance process id is required")
	case p.ParticipantContextID == "":
		return dErrors.New(dErrors.CodeValidation, "participant context id is required")
	case p.HolderID == "":
		return dErrors.New(dErrors.CodeValidation, "holder id is required")
	case len(p.CredentialFormats) == 0 && len(p.CredentialDefinitions) == 0:
		return dErrors.New(dErrors.CodeValidation, "at least one credential definition is required")
	}
	for defID, format := range p.CredentialFormats {
		if _, err := credmodels.ParseCredentialFormat(string(format)); err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("credential definition '%s': %s", defID, err))
		}
	}
	return nil
}

// DefinitionIDs returns every referenced definition id, sorted and unique.
func (p *Process) DefinitionIDs() []string {
	ids := slices.Collect(maps.Keys(p.CredentialFormats))
	ids = append(ids, p.CredentialDefinitions...)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// TransitionToApproved is valid from CREATED, and from APPROVED as a retry,
// which counts one more attempt.
func (p *Process) TransitionToApproved(now time.Time) error {
	return p.transition(StateApproved, now, StateCreated, StateApproved)
}

func (p *Process) TransitionToDelivered(now time.Time) error {
	return p.transition(StateDelivered, now, StateApproved)
}

func (p *Process) TransitionToErrored(now time.Time, detail string) error {
	if err := p.transition(StateErrored, now, StateApproved); err != nil {
		return err
	}
	p.ErrorDetail = detail
	return nil
}

func (p *Process) transition(to State, now time.Time, from ...State) error {
	if !slices.Contains(from, p.State) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot transition issuance process %s from %s to %s", p.ID, p.State, to))
	}
	if p.State == to {
		p.StateCount++
	} else {
		p.StateCount = 1
	}
	p.State = to
	p.StateTimestamp = now
	p.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so stores never share maps with callers.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	out := *p
	out.CredentialDefinitions = slices.Clone(p.CredentialDefinitions)
	out.CredentialFormats = maps.Clone(p.CredentialFormats)
	out.Claims = cloneClaims(p.Claims)
	return &out
}

func cloneClaims(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			out[k] = cloneClaims(t)
		case []any:
			out[k] = slices.Clone(t)
		default:
			out[k] = v
		}
	}
	return out
}
