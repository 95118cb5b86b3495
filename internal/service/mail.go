package service

import (
	"context"

	"github.com/koungkub/fw-notification-relay/internal/correlation"
	"github.com/koungkub/fw-notification-relay/internal/mailer"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"go.uber.org/zap"
)

// SendMail hands the message to the mail transport once. There is no retry.
func (s *NotificationService) SendMail(ctx context.Context, msg mailer.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.deliveryCollector.RecordMail(ctx, metrics.OutcomeFailed)
		s.logger.Error("failed to send mail",
			correlation.Field(ctx),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return err
	}

	s.deliveryCollector.RecordMail(ctx, metrics.OutcomeSent)
	s.logger.Info("mail sent",
		correlation.Field(ctx),
		zap.String("to", msg.To),
	)
	return nil
}
