package workflow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/notify"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// DispatchAlerts runs decide -> compose -> send -> mark for every
// candidate, each under its alert_id critical section. Transport failures
// leave the dedup slot open so a later window retry can still go out;
// nothing here aborts the pipeline.
func DispatchAlerts(ctx context.Context, gate *AlertGate, transport notify.Transport, logger *logrus.Logger, candidates []AlertCandidate) (sent int) {
	for _, cand := range candidates {
		decision := gate.Decide(cand)
		if !decision.Approved {
			fields := logrus.Fields{
				"module":   "dispatchAlerts.go",
				"clientId": cand.ClientID,
				"reason":   string(decision.Reason),
			}
			if runId, ok := utils.GetRunIdFromContext(ctx); ok {
				fields["runId"] = runId
			}
			logger.WithFields(fields).Debug("alert rejected")
			continue
		}

		err := WithAlertLock(ctx, decision.AlertID, func() error {
			// Re-check inside the lock: another dispatcher may have sent
			// between our decision and acquiring the lock.
			inner := gate.Decide(cand)
			if !inner.Approved {
				return nil
			}
			msg := notify.Message{
				ClientID: cand.ClientID,
				Window:   inner.Window,
				Text:     composeAlertText(cand, inner.Window),
			}
			if err := transport.Send(ctx, msg); err != nil {
				return err
			}
			if err := gate.MarkSent(inner); err != nil {
				return err
			}
			sent++
			return nil
		})
		if err != nil {
			config.LogError(logger, "dispatchAlerts.go", "DispatchAlerts", "sending alert", cand.ClientID, err)
		}
	}
	return sent
}

func composeAlertText(cand AlertCandidate, window string) string {
	return fmt.Sprintf("Proposals pending review for client %s (%s window).", cand.ClientID, window)
}
