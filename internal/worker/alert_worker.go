package worker

// alert_worker.go
// Processes difference-alert jobs from QueueAlerts.
// Notifies the supervisor by email when an envelope seals with a difference
// between expected and counted cash.

import (
	"context"
	"encoding/json"
	"fmt"

	"labcaixa/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertWorker sends supervisor notifications for envelopes with differences.
type AlertWorker struct {
	mailer    *infra.Mailer
	recipient string
}

// NewAlertWorker creates an AlertWorker delivering to the configured
// supervisor address.
func NewAlertWorker(mailer *infra.Mailer, recipient string) *AlertWorker {
	return &AlertWorker{mailer: mailer, recipient: recipient}
}

// Process sends the difference alert email. Returns an error so the pool can
// retry transient SMTP failures.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload DifferenceAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return nil // malformed payload will never succeed — drop it
	}
	if w.recipient == "" {
		log.Warn().Msg("alert_worker: no alert recipient configured — skipping")
		return nil
	}

	subject := fmt.Sprintf("[LabCaixa] Diferença no envelope %s", payload.EnvelopeCode)
	body := fmt.Sprintf(
		"O envelope %s (unidade %s) foi selado com diferença.\n\n"+
			"Valor esperado:  R$ %s\n"+
			"Valor conferido: R$ %s\n"+
			"Diferença:       R$ %s\n\n"+
			"O envelope está na fila de conferência do supervisor.",
		payload.EnvelopeCode, payload.UnitID,
		payload.Expected, payload.Counted, payload.Difference,
	)

	if err := w.mailer.SendAlert(w.recipient, subject, body, ""); err != nil {
		log.Error().Err(err).Str("envelope", payload.EnvelopeCode).Msg("alert_worker: failed to send alert")
		return err
	}
	log.Info().Str("envelope", payload.EnvelopeCode).Msg("alert_worker: difference alert sent")
	return nil
}
