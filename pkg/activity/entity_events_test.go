package activity

import (
	"context"
	"reflect"
	"testing"
)

func TestBuildEntityUpdatedEvent(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	attributes := []string{"title", "status"}
	event := BuildEntityUpdatedEvent(EntityEventInput{
		ActorID:    " actor ",
		ObjectType: " post ",
		ObjectID:   " 42 ",
		CommitID:   "commit-1",
		Attributes: attributes,
		Keys:       []string{"post_title", "post_status"},
		Metadata:   meta,
	})

	if event.Verb != VerbEntityUpdated {
		t.Fatalf("expected verb %s got %s", VerbEntityUpdated, event.Verb)
	}
	if event.ObjectType != "post" || event.ObjectID != "42" || event.ActorID != "actor" || event.CommitID != "commit-1" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if !reflect.DeepEqual(event.Attributes, []string{"title", "status"}) {
		t.Fatalf("unexpected attributes %v", event.Attributes)
	}
	if !reflect.DeepEqual(event.Keys, []string{"post_title", "post_status"}) {
		t.Fatalf("unexpected keys %v", event.Keys)
	}

	event.Metadata["custom"] = "changed"
	event.Attributes[0] = "changed"
	if meta["custom"] != "value" || attributes[0] != "title" {
		t.Fatalf("expected input untouched")
	}
}

func TestBuildEntityEventFallbackObjectFields(t *testing.T) {
	event := BuildEntityUpdatedEvent(EntityEventInput{CommitID: "commit-9"})
	if event.ObjectType != "entity" || event.ObjectID != "commit-9" {
		t.Fatalf("unexpected fallback object fields: %+v", event)
	}

	event = BuildEntityCreatedEvent(EntityEventInput{})
	if event.Verb != VerbEntityCreated || event.ObjectID != "entity" || !event.Routable() {
		t.Fatalf("unexpected fallback object fields: %+v", event)
	}
	if event.Metadata != nil || event.Attributes != nil {
		t.Fatalf("expected empty commit details, got %+v", event)
	}
}

func TestBuildEntityEventsWorkWithHooks(t *testing.T) {
	capture := &CaptureHook{}

	err := Hooks{capture}.Notify(context.Background(), BuildEntityUpdatedEvent(EntityEventInput{
		CommitID:   "commit-2",
		Attributes: []string{"title"},
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	event, ok := capture.Last()
	if !ok || event.OccurredAt.IsZero() || event.CommitID != "commit-2" {
		t.Fatalf("expected normalized event, got %+v", event)
	}
}
