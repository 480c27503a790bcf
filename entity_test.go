package entities

import (
	"errors"
	"reflect"
	"testing"
)

// recordingStore is a minimal ordered store that counts Set calls.
type recordingStore struct {
	values   *ChangeSet
	getErr   map[string]error
	setErr   error
	setCalls *int
	applied  *[]*ChangeSet
}

func newRecordingStore(pairs ...Pair) *recordingStore {
	calls := 0
	applied := []*ChangeSet{}
	return &recordingStore{
		values:   NewChangeSet(pairs...),
		getErr:   map[string]error{},
		setCalls: &calls,
		applied:  &applied,
	}
}

func (s *recordingStore) Get(key string) (any, error) {
	if err, ok := s.getErr[key]; ok {
		return nil, err
	}
	if value, ok := s.values.Get(key); ok {
		return value, nil
	}
	return nil, MissingValue(key)
}

func (s *recordingStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

func (s *recordingStore) Set(changes *ChangeSet) (Store, error) {
	*s.setCalls++
	*s.applied = append(*s.applied, changes.Clone())
	if s.setErr != nil {
		return nil, s.setErr
	}
	next := *s
	next.values = s.values.Clone().Merge(changes)
	return &next, nil
}

type failingProperty struct {
	getErr error
	setErr error
}

func (p failingProperty) GetValue(Entity) (any, error) {
	return nil, p.getErr
}

func (p failingProperty) SetValue(Entity, any) (*ChangeSet, error) {
	return nil, p.setErr
}

func articleSchema() *Schema {
	return NewSchema(map[string]Property{
		"title":  Direct("post_title"),
		"status": Defaulting("post_status", "legacy_status"),
		"kind":   Static("article"),
	}, map[string]any{
		"status": "draft",
	})
}

func TestEntityGetReadsThroughProperties(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello"), P("legacy_status", "published")))

	if got, err := entity.Get("title"); err != nil || got != "Hello" {
		t.Fatalf("expected title Hello, got %v err=%v", got, err)
	}
	if got, err := entity.Get("status"); err != nil || got != "published" {
		t.Fatalf("expected fallback status, got %v err=%v", got, err)
	}
	if got, err := entity.Get("kind"); err != nil || got != "article" {
		t.Fatalf("expected static kind, got %v err=%v", got, err)
	}
}

func TestEntityGetUnknownAttribute(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore())
	_, err := entity.Get("missing")
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
}

func TestEntityGetFallsBackToDefault(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore())

	got, err := entity.Get("status")
	if err != nil || got != "draft" {
		t.Fatalf("expected default draft, got %v err=%v", got, err)
	}

	_, err = entity.Get("title")
	if !IsMissing(err) {
		t.Fatalf("expected missing title without default, got %v", err)
	}
}

func TestEntityGetDoesNotMaskOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	schema := NewSchema(map[string]Property{
		"broken": failingProperty{getErr: boom},
	}, map[string]any{"broken": "fallback"})

	_, err := New(schema, newRecordingStore()).Get("broken")
	if !errors.Is(err, boom) {
		t.Fatalf("expected property error, got %v", err)
	}
}

func TestEntityGetIgnoresDefaultWithoutProperty(t *testing.T) {
	schema := NewSchema(nil, map[string]any{"orphan": 1})
	_, err := New(schema, newRecordingStore()).Get("orphan")
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute for orphan default, got %v", err)
	}
}

func TestEntitySetCommitsOnce(t *testing.T) {
	store := newRecordingStore(P("post_title", "Old"))
	entity := New(articleSchema(), store)

	next, err := entity.Set(NewChangeSet(P("title", "New"), P("status", "published"), P("kind", "ignored")))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if *store.setCalls != 1 {
		t.Fatalf("expected one store commit, got %d", *store.setCalls)
	}
	applied := (*store.applied)[0]
	if !reflect.DeepEqual(applied.Keys(), []string{"post_title", "post_status"}) {
		t.Fatalf("unexpected committed keys %v", applied.Keys())
	}

	if got, _ := next.Get("title"); got != "New" {
		t.Fatalf("expected new title, got %v", got)
	}
	if got, _ := next.Get("status"); got != "published" {
		t.Fatalf("expected new status, got %v", got)
	}
	if got, _ := entity.Get("title"); got != "Old" {
		t.Fatalf("expected original entity untouched, got %v", got)
	}
	if next.Schema() != entity.Schema() {
		t.Fatalf("expected schema to be shared")
	}
}

func TestEntitySetEmptyStillCommits(t *testing.T) {
	store := newRecordingStore()
	if _, err := New(articleSchema(), store).Set(NewChangeSet()); err != nil {
		t.Fatalf("set: %v", err)
	}
	if *store.setCalls != 1 || (*store.applied)[0].Len() != 0 {
		t.Fatalf("expected one empty commit, got calls=%d", *store.setCalls)
	}
}

func TestEntitySetUnknownAttributeLeavesStoreUntouched(t *testing.T) {
	store := newRecordingStore()
	_, err := New(articleSchema(), store).Set(NewChangeSet(P("title", "x"), P("nope", 1)))
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
	if *store.setCalls != 0 {
		t.Fatalf("expected no store commit, got %d", *store.setCalls)
	}
}

func TestEntitySetSkipsMissingWrites(t *testing.T) {
	schema := NewSchema(map[string]Property{
		"title":  Direct("post_title"),
		"absent": failingProperty{setErr: MissingValue("absent")},
	}, nil)
	store := newRecordingStore()

	next, err := New(schema, store).Set(NewChangeSet(P("absent", 1), P("title", "kept")))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := next.Get("title"); got != "kept" {
		t.Fatalf("expected remaining writes committed, got %v", got)
	}
	if *store.setCalls != 1 {
		t.Fatalf("expected one commit, got %d", *store.setCalls)
	}
}

func TestEntitySetStrictWriteFailure(t *testing.T) {
	boom := errors.New("boom")
	schema := NewSchema(map[string]Property{
		"title":  Direct("post_title"),
		"broken": failingProperty{setErr: boom},
	}, nil)
	store := newRecordingStore()

	_, err := New(schema, store).Set(NewChangeSet(P("title", "x"), P("broken", 1)))
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if *store.setCalls != 0 {
		t.Fatalf("expected no commit, got %d", *store.setCalls)
	}
}

func TestEntitySetLenientWriteFailure(t *testing.T) {
	boom := errors.New("boom")
	schema := NewSchema(map[string]Property{
		"title":  Direct("post_title"),
		"broken": failingProperty{setErr: boom},
	}, nil)
	store := newRecordingStore()
	var events []LogEvent
	logger := LoggerFunc(func(event LogEvent) { events = append(events, event) })

	next, err := New(schema, store, WithLenientWrites(), WithLogger(logger)).
		Set(NewChangeSet(P("broken", 1), P("title", "x")))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := next.Get("title"); got != "x" {
		t.Fatalf("expected title written, got %v", got)
	}

	var logged bool
	for _, event := range events {
		if event.Op == LogOpSet && event.Attribute == "broken" && errors.Is(event.Err, boom) {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected dropped write to be logged, got %+v", events)
	}
}

func TestEntitySetLaterAttributeWinsOnSharedKey(t *testing.T) {
	schema := NewSchema(map[string]Property{
		"a": Direct("shared"),
		"b": Direct("shared"),
	}, nil)
	store := newRecordingStore()

	next, err := New(schema, store).Set(NewChangeSet(P("b", "first"), P("a", "second")))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := next.Store().Get("shared"); got != "second" {
		t.Fatalf("expected later attribute to win, got %v", got)
	}
}

func TestEntitySetPropagatesStoreError(t *testing.T) {
	store := newRecordingStore()
	store.setErr = errors.New("read only")
	_, err := New(articleSchema(), store).Set(NewChangeSet(P("title", "x")))
	if err == nil || err.Error() != "read only" {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestEntityExport(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello")))
	exported, err := entity.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := map[string]any{"title": "Hello", "status": "draft", "kind": "article"}
	if !reflect.DeepEqual(exported, want) {
		t.Fatalf("unexpected export %v", exported)
	}

	_, err = New(articleSchema(), newRecordingStore()).Export()
	if !IsMissing(err) {
		t.Fatalf("expected missing title to fail export, got %v", err)
	}
}

func TestEntityLogsOperations(t *testing.T) {
	var ops []string
	logger := LoggerFunc(func(event LogEvent) { ops = append(ops, event.Op) })
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello")), WithLogger(logger))

	if _, err := entity.Get("title"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := entity.Set(NewChangeSet(P("title", "x"))); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []string{LogOpGet, LogOpSet, LogOpCommit}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("expected ops %v, got %v", want, ops)
	}
}

func TestEntityTrace(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello")))

	trace, err := entity.Trace("title")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Source != SourceProperty || trace.Value != "Hello" || !trace.Found {
		t.Fatalf("unexpected property trace %+v", trace)
	}
	if !reflect.DeepEqual(trace.Keys, []string{"post_title"}) {
		t.Fatalf("unexpected trace keys %v", trace.Keys)
	}

	trace, err = entity.Trace("status")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Source != SourceDefault || trace.Value != "draft" || trace.Error == "" {
		t.Fatalf("unexpected default trace %+v", trace)
	}

	trace, err = entity.Trace("unknown")
	if !errors.Is(err, ErrUnknownAttribute) || trace.Found {
		t.Fatalf("unexpected unknown trace %+v err=%v", trace, err)
	}
}
