package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/koungkub/fw-notification-relay/internal/correlation"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type fcmEnvelope struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendPush mints one access token and delivers the message to every token.
// Only a failure before the fan-out starts is returned as an error; a
// recipient that could not be reached is reported in its own result.
func (s *NotificationService) SendPush(ctx context.Context, msg PushMessage) (PushReport, error) {
	accessToken, err := s.tokenProvider.AccessToken(ctx)
	if err != nil {
		s.logger.Error("failed to obtain access token",
			correlation.Field(ctx),
			zap.Error(err),
		)
		return PushReport{}, err
	}

	endpoint := s.sendEndpoint()
	data := msg.Data
	if data == nil {
		data = map[string]string{}
	}

	results := make([]DeliveryResult, len(msg.Tokens))

	var g errgroup.Group
	if s.config.FanoutConcurrency > 0 {
		g.SetLimit(s.config.FanoutConcurrency)
	}

	for i, token := range msg.Tokens {
		g.Go(func() error {
			results[i] = s.deliver(ctx, endpoint, accessToken, fcmEnvelope{
				Message: fcmMessage{
					Token: token,
					Notification: fcmNotification{
						Title: msg.Title,
						Body:  msg.Body,
					},
					Data: data,
				},
			})
			return nil
		})
	}
	// every task records its own failure in results and returns nil
	_ = g.Wait()

	report := PushReport{
		Results: results,
		Failed: lo.CountBy(results, func(r DeliveryResult) bool {
			return r.Error != ""
		}),
	}

	s.logger.Info("push fan-out completed",
		correlation.Field(ctx),
		zap.Int("recipients", len(results)),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *NotificationService) deliver(ctx context.Context, endpoint, accessToken string, envelope fcmEnvelope) DeliveryResult {
	result := DeliveryResult{Token: envelope.Message.Token}

	resp, err := s.httpclient.PostJSON(ctx, endpoint, accessToken, envelope)
	if err != nil {
		s.deliveryCollector.RecordPush(ctx, metrics.OutcomeFailed)
		s.logger.Warn("push delivery failed",
			correlation.Field(ctx),
			zap.String("token", envelope.Message.Token),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	result.Response = rawResponse(resp.Body)

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		s.deliveryCollector.RecordPush(ctx, metrics.OutcomeSent)
		return result
	}

	s.deliveryCollector.RecordPush(ctx, metrics.OutcomeRejected)
	s.logger.Warn("push message rejected by provider",
		correlation.Field(ctx),
		zap.String("token", envelope.Message.Token),
		zap.Int("status_code", resp.StatusCode),
	)
	return result
}

func (s *NotificationService) sendEndpoint() string {
	return fmt.Sprintf("%s/v1/projects/%s/messages:send",
		strings.TrimRight(s.config.FCMBaseURL, "/"),
		s.credential.ProjectID,
	)
}

// rawResponse keeps a JSON body as is and wraps anything else in a JSON string.
func rawResponse(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	wrapped, _ := json.Marshal(string(body))
	return wrapped
}
