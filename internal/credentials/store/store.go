// Package store persists credential resources: holder credentials and the
// bitstring status-list credentials they point into.
package store

import (
	"context"

	"vcissuer/internal/credentials/models"
	"vcissuer/pkg/platform/query"
)

// Query fields understood by every Store implementation.
const (
	FieldID                   = "id"
	FieldParticipantContextID = "participantContextId"
	FieldHolderID             = "holderId"
	FieldIssuerID             = "issuerId"
	FieldState                = "state"
	FieldIsStatusList         = "isStatusList"
	FieldStatusListActive     = "statusList.active"
	FieldStatusListPurpose    = "statusList.purpose"
	FieldStatusListPublicURL  = "statusList.publicUrl"
	FieldCreatedAt            = "createdAt"
)

// Error contract:
//   - Create returns sentinel.ErrAlreadyExists for a duplicate id and
//     sentinel.ErrConflict when a second active status list would exist for the
//     same participant and purpose.
//   - Update returns sentinel.ErrNotFound for an unknown id and sentinel.ErrConflict
//     when the resource version does not match the stored one. Update never
//     touches the status-list current index.
//   - IncrementStatusListIndex returns sentinel.ErrConflict when the stored index
//     differs from expected or the list is full.
type Store interface {
	Create(ctx context.Context, resource *models.VerifiableCredentialResource) error
	Update(ctx context.Context, resource *models.VerifiableCredentialResource) error
	FindByID(ctx context.Context, id string) (*models.VerifiableCredentialResource, error)
	Query(ctx context.Context, spec query.Spec) ([]*models.VerifiableCredentialResource, error)
	Delete(ctx context.Context, id string) error
	IncrementStatusListIndex(ctx context.Context, id string, expected int) error
}

func accessor(r *models.VerifiableCredentialResource, field string) (any, bool) {
	switch field {
	case FieldID:
		return r.ID, true
	case FieldParticipantContextID:
		return r.ParticipantContextID, true
	case FieldHolderID:
		return r.HolderID, true
	case FieldIssuerID:
		return r.IssuerID, true
	case FieldState:
		return r.State, true
	case FieldIsStatusList:
		return r.IsStatusList(), true
	case FieldCreatedAt:
		return r.CreatedAt, true
	case FieldStatusListActive:
		return r.StatusList != nil && r.StatusList.Active, true
	case FieldStatusListPurpose:
		if r.StatusList == nil {
			return nil, true
		}
		return r.StatusList.Purpose, true
	case FieldStatusListPublicURL:
		if r.StatusList == nil {
			return nil, true
		}
		return r.StatusList.PublicURL, true
	}
	return nil, false
}

var columns = query.Columns{
	FieldID:                   "id",
	FieldParticipantContextID: "participant_context_id",
	FieldHolderID:             "holder_id",
	FieldIssuerID:             "issuer_id",
	FieldState:                "state",
	FieldIsStatusList:         "(status_list_purpose IS NOT NULL)",
	FieldStatusListActive:     "status_list_active",
	FieldStatusListPurpose:    "status_list_purpose",
	FieldStatusListPublicURL:  "status_list_url",
	FieldCreatedAt:            "created_at",
}
