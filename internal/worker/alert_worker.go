// Package worker archives conflict alerts delivered over AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cruce/internal/amqp"
	"cruce/internal/log"
	"cruce/internal/storage"
)

// AlertStore is the archive the worker writes to.
type AlertStore interface {
	RecordAlert(ctx context.Context, a storage.Alert) (bool, error)
}

var errMissingDeclarant = errors.New("alert has no declarant")

type AlertWorker struct {
	store  AlertStore
	logger *log.Logger
}

func NewAlertWorker(store AlertStore, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AlertWorker{store: store, logger: logger.WithComponent(log.ComponentAMQP)}
}

// HandleConflictAlert archives one alert. Duplicates are acknowledged without
// a second write; alerts with no declarant are logged and dropped.
func (w *AlertWorker) HandleConflictAlert(ctx context.Context, msg *amqp.ConflictAlert) error {
	if strings.TrimSpace(msg.Declarant) == "" {
		w.logger.WarnContext(ctx, "Dropping conflict alert",
			"alert_id", msg.ID,
			log.FieldError, errMissingDeclarant)
		return nil
	}

	inserted, err := w.store.RecordAlert(ctx, storage.Alert{
		ID:               msg.ID,
		Declarant:        msg.Declarant,
		CoincidentEntity: msg.CoincidentEntity,
		Flagged:          msg.Flagged,
		EmittedAt:        msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("archive alert %s: %w", msg.ID, err)
	}

	if !inserted {
		w.logger.DebugContext(ctx, "Conflict alert already archived", "alert_id", msg.ID)
		return nil
	}
	w.logger.InfoContext(ctx, "Archived conflict alert",
		"alert_id", msg.ID,
		log.FieldDeclarant, msg.Declarant,
		log.FieldEntity, msg.CoincidentEntity)
	return nil
}
