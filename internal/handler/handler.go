package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/koungkub/fw-notification-relay/internal/correlation"
	"github.com/koungkub/fw-notification-relay/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("handler",
	fx.Provide(
		NewNotificationHandler,
	),
)

const MessageMailSent = "mail sent"

type Notification struct {
	services service.NotificationProvider
	logger   *zap.Logger
}

type NotificationParams struct {
	fx.In

	Services service.NotificationProvider
	Logger   *zap.Logger
}

func NewNotificationHandler(params NotificationParams) *Notification {
	return &Notification{
		services: params.Services,
		logger:   params.Logger,
	}
}

func (n *Notification) SendMailHandler(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodPost:
	default:
		c.String(http.StatusMethodNotAllowed, MessageMethodNotAllowed)
		return
	}

	ctx := c.Request.Context()

	var req MailRequest
	if err := bindBody(c, &req); err != nil {
		n.rejectRequest(c, err)
		return
	}

	if err := n.services.SendMail(ctx, req.Message()); err != nil {
		c.JSON(http.StatusInternalServerError, GetInternalError(MessageMailFailed, err))
		return
	}

	c.JSON(http.StatusOK, MailResponse{
		Success: true,
		Message: MessageMailSent,
	})
}

func (n *Notification) SendPushHandler(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	ctx := c.Request.Context()

	var req PushRequest
	if err := bindBody(c, &req); err != nil {
		n.rejectRequest(c, err)
		return
	}

	report, err := n.services.SendPush(ctx, req.Message())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GetPushError(err))
		return
	}

	c.JSON(http.StatusOK, PushResponse{
		Success:        true,
		Results:        report.Results,
		Failed:         report.Failed,
		PartialFailure: report.PartialFailure(),
	})
}

func (n *Notification) rejectRequest(c *gin.Context, err error) {
	n.logger.Info("rejected request",
		correlation.Field(c.Request.Context()),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, GetRequestError())
		return
	}
	c.JSON(http.StatusBadRequest, GetMalformedBodyError())
}

// bindBody decodes and validates the request body into obj.
func bindBody(c *gin.Context, obj any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}

	body, err := normalizeBody(raw)
	if err != nil {
		return err
	}

	return binding.JSON.BindBody(body, obj)
}
