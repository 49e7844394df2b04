package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/pkg/mailer"
	"github.com/oksasatya/loan-simulator/pkg/metrics"
)

// Publisher puts a JSON job on the email queue. *helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier enqueues email jobs. Delivery is best effort: failures are logged
// and never fail the calling operation.
type Notifier struct {
	Pub     Publisher
	Logger  *logrus.Logger
	Enabled bool
}

func NewNotifier(pub Publisher, logger *logrus.Logger, enabled bool) *Notifier {
	return &Notifier{Pub: pub, Logger: logger, Enabled: enabled}
}

func (n *Notifier) Enqueue(ctx context.Context, to, template string, data map[string]any) {
	if n == nil || !n.Enabled || n.Pub == nil || to == "" {
		return
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	err := n.Pub.PublishJSON(ctx, job)
	metrics.RecordNotification(template, err)
	if err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithField("template", template).Warn("enqueue email failed")
	}
}
