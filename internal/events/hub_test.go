package events

import (
	"errors"
	"testing"
)

type fakeWS struct {
	got    []CatalogEvent
	fail   bool
	closed bool
}

func (f *fakeWS) WriteJSON(v any) error {
	if f.fail {
		return errors.New("write failed")
	}
	if ev, ok := v.(CatalogEvent); ok {
		f.got = append(f.got, ev)
	}
	return nil
}

func (f *fakeWS) Close() error {
	f.closed = true
	return nil
}

func TestBroadcastDeliversToWS(t *testing.T) {
	hub := NewHub()
	ws := &fakeWS{}
	hub.AddWS(ws)

	hub.Broadcast(Saved("abc", "Itachi"))

	if len(ws.got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(ws.got))
	}
	ev := ws.got[0]
	if ev.Type != TypeSaved || ev.ID != "abc" || ev.Name != "Itachi" || ev.At.IsZero() {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestBroadcastDropsFailingClients(t *testing.T) {
	hub := NewHub()
	bad := &fakeWS{fail: true}
	good := &fakeWS{}
	hub.AddWS(bad)
	hub.AddWS(good)

	hub.Broadcast(Imported(3))

	if !bad.closed {
		t.Error("failing client should be closed")
	}
	if stats := hub.Stats(); stats.WSClients != 1 {
		t.Errorf("expected 1 remaining ws client, got %d", stats.WSClients)
	}
	if len(good.got) != 1 || good.got[0].Count != 3 {
		t.Errorf("healthy client should still receive events: %+v", good.got)
	}
}

func TestRemoveWS(t *testing.T) {
	hub := NewHub()
	ws := &fakeWS{}
	hub.AddWS(ws)
	hub.RemoveWS(ws)

	if !ws.closed {
		t.Error("RemoveWS should close the connection")
	}
	if stats := hub.Stats(); stats.WSClients != 0 {
		t.Errorf("expected 0 ws clients, got %d", stats.WSClients)
	}
}
