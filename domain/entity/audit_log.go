package entity

import "time"

const (
	AuditActionUpdateAffiliateStatus = "UPDATE_AFFILIATE_STATUS"
	AuditActionDeleteAffiliate       = "DELETE_AFFILIATE"

	AuditObjectAffiliate = "AFFILIATE"
)

// AuditLog is an append-only record of a privileged mutation.
type AuditLog struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actorId"`
	Action     string                 `json:"action"`
	ObjectType string                 `json:"objectType"`
	ObjectID   string                 `json:"objectId"`
	Payload    map[string]interface{} `json:"payload"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func NewAuditLog(actorID, action, objectType, objectID string, payload map[string]interface{}, now time.Time) *AuditLog {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &AuditLog{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Payload:    payload,
		CreatedAt:  now,
	}
}
