package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type notificationMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// NotificationService emails operators about transformer events and failures.
type NotificationService struct {
	mailer  types.Mailer
	pool    *WorkerPool
	timeout time.Duration
	metrics *notificationMetrics
	log     *zap.SugaredLogger
}

// NewNotificationService wires a mail transport. pool may be nil, in which
// case SendNotificationAsync always reports false.
func NewNotificationService(mailer types.Mailer, pool *WorkerPool, timeout time.Duration, reg prometheus.Registerer) *NotificationService {
	metrics := &notificationMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caliper_notification_send_duration_seconds",
			Help:    "Time taken to send notification emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caliper_notification_errors_total",
			Help: "Total number of notification emails that failed to send",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caliper_notification_sent_total",
			Help: "Total number of notification emails sent",
		}),
	}
	reg.MustRegister(metrics.sendLatency, metrics.errorCount, metrics.sentCount)

	return &NotificationService{
		mailer:  mailer,
		pool:    pool,
		timeout: timeout,
		metrics: metrics,
		log:     logger.GetLogger().Named("notification"),
	}
}

// BuildNotificationMessage renders the plain-text body:
//
//	Name:\t<name>\n<body>\n
//
// followed by "\n\nError:\t<error>" when an error is present.
func BuildNotificationMessage(data types.NotificationData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:\t%s\n%s\n", data.Name, data.Body)
	if data.Error != "" {
		fmt.Fprintf(&b, "\n\nError:\t%s", data.Error)
	}
	return b.String()
}

// SendNotification sends one email and reports whether it was delivered to
// the transport. Failures are logged, never returned.
func (s *NotificationService) SendNotification(ctx context.Context, data types.NotificationData, subject, fromEmail string, destEmails []string) bool {
	start := time.Now()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(start).Seconds())
	}()

	if len(destEmails) == 0 {
		s.log.Warnw("Notification has no recipients, nothing sent",
			"from", fromEmail,
			"subject", subject)
		return false
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg := types.EmailMessage{
		From:    fromEmail,
		To:      destEmails,
		Subject: subject,
		Text:    BuildNotificationMessage(data),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.errorCount.Inc()
		s.log.Errorw("Unable to send notification email",
			"from", fromEmail,
			"to", logger.MaskEmails(destEmails),
			"content", data,
			"error", err)
		return false
	}

	s.metrics.sentCount.Inc()
	s.log.Infow("Notification email sent",
		"from", fromEmail,
		"to", logger.MaskEmails(destEmails),
		"content", data)
	return true
}

// SendNotificationAsync queues the send on the worker pool. It returns false
// when the pool is missing, stopped or full.
func (s *NotificationService) SendNotificationAsync(data types.NotificationData, subject, fromEmail string, destEmails []string) bool {
	if s.pool == nil {
		s.log.Warnw("No worker pool configured, async notification dropped", "subject", subject)
		return false
	}

	to := append([]string(nil), destEmails...)
	return s.pool.Submit(Job{
		Name: "notification:" + subject,
		Execute: func(ctx context.Context) error {
			if !s.SendNotification(ctx, data, subject, fromEmail, to) {
				return fmt.Errorf("notification %q was not sent", subject)
			}
			return nil
		},
	})
}
