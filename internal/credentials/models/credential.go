package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// W3C VC data model context and type names.
const (
	ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"
	ContextCredentialsV2 = "https://www.w3.org/ns/credentials/v2"

	TypeVerifiableCredential          = "VerifiableCredential"
	TypeBitstringStatusListCredential = "BitstringStatusListCredential"
	TypeBitstringStatusList           = "BitstringStatusList"
	TypeBitstringStatusListEntry      = "BitstringStatusListEntry"
)

// VerifiableCredential is the structured (unsigned) form of a credential.
type VerifiableCredential struct {
	Context           []string
	ID                string
	Type              []string
	Issuer            Issuer
	IssuanceDate      time.Time
	ExpirationDate    *time.Time
	CredentialSubject []CredentialSubject
	CredentialStatus  []CredentialStatus
	Name              string
	Description       string
}

// Issuer serializes as a bare id string unless extra properties are present.
type Issuer struct {
	ID         string
	Properties map[string]any
}

// CredentialSubject serializes as a flat object: {"id": ..., <claims>}.
type CredentialSubject struct {
	ID     string
	Claims map[string]any
}

// CredentialStatus serializes as a flat object: {"id", "type", <properties>}.
type CredentialStatus struct {
	ID         string
	Type       string
	Properties map[string]any
}

// Property returns a status property rendered as a string ("" when absent).
func (s CredentialStatus) Property(name string) string {
	v, ok := s.Properties[name]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// StatusPurpose returns the statusPurpose property.
func (s CredentialStatus) StatusPurpose() string {
	return s.Property("statusPurpose")
}

// HolderID is the id of the first credential subject.
func (vc VerifiableCredential) HolderID() string {
	if len(vc.CredentialSubject) == 0 {
		return ""
	}
	return vc.CredentialSubject[0].ID
}

// StatusByPurpose returns the first credentialStatus entry with the given purpose.
func (vc VerifiableCredential) StatusByPurpose(purpose string) (CredentialStatus, bool) {
	for _, s := range vc.CredentialStatus {
		if s.StatusPurpose() == purpose {
			return s, true
		}
	}
	return CredentialStatus{}, false
}

// Clone returns a deep copy so stored credentials are never aliased by callers.
func (vc VerifiableCredential) Clone() VerifiableCredential {
	out := vc
	out.Context = append([]string(nil), vc.Context...)
	out.Type = append([]string(nil), vc.Type...)
	out.Issuer.Properties = cloneMap(vc.Issuer.Properties)
	if vc.ExpirationDate != nil {
		t := *vc.ExpirationDate
		out.ExpirationDate = &t
	}
	if vc.CredentialSubject != nil {
		out.CredentialSubject = make([]CredentialSubject, len(vc.CredentialSubject))
		for i, s := range vc.CredentialSubject {
			out.CredentialSubject[i] = CredentialSubject{ID: s.ID, Claims: cloneMap(s.Claims)}
		}
	}
	if vc.CredentialStatus != nil {
		out.CredentialStatus = make([]CredentialStatus, len(vc.CredentialStatus))
		for i, s := range vc.CredentialStatus {
			out.CredentialStatus[i] = CredentialStatus{ID: s.ID, Type: s.Type, Properties: cloneMap(s.Properties)}
		}
	}
	return out
}

type credentialJSON struct {
	Context           []string        `json:"@context"`
	ID                string          `json:"id,omitempty"`
	Type              []string        `json:"type"`
	Issuer            Issuer          `json:"issuer"`
	IssuanceDate      time.Time       `json:"issuanceDate"`
	ExpirationDate    *time.Time      `json:"expirationDate,omitempty"`
	CredentialSubject json.RawMessage `json:"credentialSubject"`
	CredentialStatus  json.RawMessage `json:"credentialStatus,omitempty"`
	Name              string          `json:"name,omitempty"`
	Description       string          `json:"description,omitempty"`
}

func (vc VerifiableCredential) MarshalJSON() ([]byte, error) {
	subjects, err := marshalOneOrMany(vc.CredentialSubject)
	if err != nil {
		return nil, err
	}
	var statuses json.RawMessage
	if len(vc.CredentialStatus) > 0 {
		if statuses, err = marshalOneOrMany(vc.CredentialStatus); err != nil {
			return nil, err
		}
	}
	return json.Marshal(credentialJSON{
		Context:           vc.Context,
		ID:                vc.ID,
		Type:              vc.Type,
		Issuer:            vc.Issuer,
		IssuanceDate:      vc.IssuanceDate,
		ExpirationDate:    vc.ExpirationDate,
		CredentialSubject: subjects,
		CredentialStatus:  statuses,
		Name:              vc.Name,
		Description:       vc.Description,
	})
}

func (vc *VerifiableCredential) UnmarshalJSON(data []byte) error {
	var raw credentialJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	subjects, err := unmarshalOneOrMany[CredentialSubject](raw.CredentialSubject)
	if err != nil {
		return fmt.Errorf("credentialSubject: %w", err)
	}
	statuses, err := unmarshalOneOrMany[CredentialStatus](raw.CredentialStatus)
	if err != nil {
		return fmt.Errorf("credentialStatus: %w", err)
	}
	*vc = VerifiableCredential{
		Context:           raw.Context,
		ID:                raw.ID,
		Type:              raw.Type,
		Issuer:            raw.Issuer,
		IssuanceDate:      raw.IssuanceDate,
		ExpirationDate:    raw.ExpirationDate,
		CredentialSubject: subjects,
		CredentialStatus:  statuses,
		Name:              raw.Name,
		Description:       raw.Description,
	}
	return nil
}

func (i Issuer) MarshalJSON() ([]byte, error) {
	if len(i.Properties) == 0 {
		return json.Marshal(i.ID)
	}
	obj := cloneMap(i.Properties)
	obj["id"] = i.ID
	return json.Marshal(obj)
}

func (i *Issuer) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*i = Issuer{ID: id}
		return nil
	}
	obj := map[string]any{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("issuer must be a string or an object: %w", err)
	}
	id, _ = obj["id"].(string)
	delete(obj, "id")
	*i = Issuer{ID: id}
	if len(obj) > 0 {
		i.Properties = obj
	}
	return nil
}

func (s CredentialSubject) MarshalJSON() ([]byte, error) {
	obj := cloneMap(s.Claims)
	if obj == nil {
		obj = map[string]any{}
	}
	if s.ID != "" {
		obj["id"] = s.ID
	}
	return json.Marshal(obj)
}

func (s *CredentialSubject) UnmarshalJSON(data []byte) error {
	obj := map[string]any{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	id, _ := obj["id"].(string)
	delete(obj, "id")
	*s = CredentialSubject{ID: id, Claims: obj}
	return nil
}

func (s CredentialStatus) MarshalJSON() ([]byte, error) {
	obj := cloneMap(s.Properties)
	if obj == nil {
		obj = map[string]any{}
	}
	if s.ID != "" {
		obj["id"] = s.ID
	}
	obj["type"] = s.Type
	return json.Marshal(obj)
}

func (s *CredentialStatus) UnmarshalJSON(data []byte) error {
	obj := map[string]any{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	id, _ := obj["id"].(string)
	typ, _ := obj["type"].(string)
	delete(obj, "id")
	delete(obj, "type")
	*s = CredentialStatus{ID: id, Type: typ, Properties: obj}
	return nil
}

func marshalOneOrMany[T any](items []T) (json.RawMessage, error) {
	if len(items) == 1 {
		return json.Marshal(items[0])
	}
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func unmarshalOneOrMany[T any](data json.RawMessage) ([]T, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
