package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"cruce/internal/amqp"
	"cruce/internal/storage"
)

type fakeStore struct {
	alerts []storage.Alert
	seen   map[string]bool
	err    error
}

func (f *fakeStore) RecordAlert(_ context.Context, a storage.Alert) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[a.ID] {
		return false, nil
	}
	f.seen[a.ID] = true
	f.alerts = append(f.alerts, a)
	return true, nil
}

func TestHandleConflictAlert(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	alert := &amqp.ConflictAlert{ID: "id-1", Declarant: "Ana Pérez", CoincidentEntity: "IMSS", Flagged: 2, Timestamp: ts}

	tests := []struct {
		name      string
		store     *fakeStore
		messages  []*amqp.ConflictAlert
		wantErr   bool
		wantSaved int
	}{
		{"archives alert", &fakeStore{}, []*amqp.ConflictAlert{alert}, false, 1},
		{"duplicate is acknowledged", &fakeStore{}, []*amqp.ConflictAlert{alert, alert}, false, 1},
		{"blank declarant dropped", &fakeStore{}, []*amqp.ConflictAlert{{ID: "id-2", Declarant: "  "}}, false, 0},
		{"store failure requeues", &fakeStore{err: errors.New("disk full")}, []*amqp.ConflictAlert{alert}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewAlertWorker(tt.store, nil)
			var err error
			for _, m := range tt.messages {
				if e := w.HandleConflictAlert(context.Background(), m); e != nil {
					err = e
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(tt.store.alerts) != tt.wantSaved {
				t.Fatalf("saved %d alerts, want %d", len(tt.store.alerts), tt.wantSaved)
			}
			if tt.wantSaved == 1 {
				got := tt.store.alerts[0]
				if got.Declarant != "Ana Pérez" || got.Flagged != 2 || !got.EmittedAt.Equal(ts) {
					t.Errorf("archived %+v", got)
				}
			}
		})
	}
}
