package activity

import (
	"strings"
	"time"
)

// Entity event verbs.
const (
	VerbEntityUpdated = "entity.updated"
	VerbEntityCreated = "entity.created"
)

// EntityEventInput describes the fields of an entity commit event.
type EntityEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	CommitID   string
	Attributes []string
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildEntityUpdatedEvent constructs the event for a committed Entity.Set.
func BuildEntityUpdatedEvent(input EntityEventInput) Event {
	return buildEntityEvent(VerbEntityUpdated, input)
}

// BuildEntityCreatedEvent constructs the event for a newly persisted entity.
func BuildEntityCreatedEvent(input EntityEventInput) Event {
	return buildEntityEvent(VerbEntityCreated, input)
}

// buildEntityEvent falls back to "entity" for the object type and to the
// commit id, then the object type, for the object id so the event stays
// routable.
func buildEntityEvent(verb string, input EntityEventInput) Event {
	objectType := strings.TrimSpace(input.ObjectType)
	if objectType == "" {
		objectType = "entity"
	}
	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.CommitID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		CommitID:   strings.TrimSpace(input.CommitID),
		Attributes: cloneStrings(input.Attributes),
		Keys:       cloneStrings(input.Keys),
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}
