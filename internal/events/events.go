// Package events defines the domain events the issuer emits. Events are
// appended to the transactional outbox and relayed to Kafka by the outbox worker.
package events

import "time"

// Type identifies an event on the bus.
type Type string

const (
	IssuanceDelivered Type = "issuance.delivered"
	IssuanceErrored   Type = "issuance.errored"
	CredentialRevoked Type = "credential.revoked"
	StatusListRotated Type = "statuslist.rotated"
)

// Aggregate types recorded on outbox entries.
const (
	AggregateIssuanceProcess = "issuance_process"
	AggregateCredential      = "credential"
	AggregateStatusList      = "status_list"
)

// Event is the envelope serialized into the outbox payload.
type Event struct {
	ID                   string         `json:"id"`
	Type                 Type           `json:"type"`
	AggregateType        string         `json:"aggregateType"`
	AggregateID          string         `json:"aggregateId"`
	ParticipantContextID string         `json:"participantContextId"`
	OccurredAt           time.Time      `json:"occurredAt"`
	Data                 map[string]any `json:"data,omitempty"`
}

func NewIssuanceDelivered(processID, participantContextID, holderID string, credentialIDs []string) Event {
	return Event{
		Type:                 IssuanceDelivered,
		AggregateType:        AggregateIssuanceProcess,
		AggregateID:          processID,
		ParticipantContextID: participantContextID,
		Data: map[string]any{
			"holderId":      holderID,
			"credentialIds": credentialIDs,
		},
	}
}

func NewIssuanceErrored(processID, participantContextID string, attempts int, detail string) Event {
	return Event{
		Type:                 IssuanceErrored,
		AggregateType:        AggregateIssuanceProcess,
		AggregateID:          processID,
		ParticipantContextID: participantContextID,
		Data: map[string]any{
			"attempts": attempts,
			"error":    detail,
		},
	}
}

func NewCredentialRevoked(credentialID, participantContextID, statusListID string, index int) Event {
	return Event{
		Type:                 CredentialRevoked,
		AggregateType:        AggregateCredential,
		AggregateID:          credentialID,
		ParticipantContextID: participantContextID,
		Data: map[string]any{
			"statusListId":    statusListID,
			"statusListIndex": index,
		},
	}
}

func NewStatusListRotated(statusListID, participantContextID, previousID, publicURL string) Event {
	data := map[string]any{"publicUrl": publicURL}
	if previousID != "" {
		data["previousStatusListId"] = previousID
	}
	return Event{
		Type:                 StatusListRotated,
		AggregateType:        AggregateStatusList,
		AggregateID:          statusListID,
		ParticipantContextID: participantContextID,
		Data:                 data,
	}
}
