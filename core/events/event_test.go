package events

import (
	"testing"

	"reservevault/core/types"
)

type recorder struct{ seen []string }

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt.EventType()) }

func TestBufferDrainAndDiscard(t *testing.T) {
	var buf Buffer
	buf.Emit(Wrap(&types.Event{Type: "a"}))
	buf.Emit(Wrap(&types.Event{Type: "b"}))
	drained := buf.Drain()
	if len(drained) != 2 || drained[0].EventType() != "a" || drained[1].EventType() != "b" {
		t.Fatalf("unexpected drain: %+v", drained)
	}
	if len(buf.Drain()) != 0 {
		t.Fatalf("expected empty buffer after drain")
	}
	buf.Emit(Wrap(&types.Event{Type: "c"}))
	buf.Discard()
	if len(buf.Drain()) != 0 {
		t.Fatalf("expected discard to drop events")
	}
}

func TestMultiFansOut(t *testing.T) {
	first, second := &recorder{}, &recorder{}
	Multi{first, nil, second}.Emit(Wrap(&types.Event{Type: "vault.deposited"}))
	if len(first.seen) != 1 || len(second.seen) != 1 {
		t.Fatalf("expected both emitters to observe the event")
	}
}
