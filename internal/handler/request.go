package handler

import (
	"bytes"
	"encoding/json"

	"github.com/koungkub/fw-notification-relay/internal/mailer"
	"github.com/koungkub/fw-notification-relay/internal/service"
)

type MailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Text    string `json:"text" binding:"required_without=HTML"`
	HTML    string `json:"html" binding:"required_without=Text"`
}

func (r MailRequest) Message() mailer.Message {
	return mailer.Message{
		To:      r.To,
		Subject: r.Subject,
		Text:    r.Text,
		HTML:    r.HTML,
	}
}

// Tokens accepts either a single device token or a list of them.
type Tokens []string

func (t *Tokens) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		if single == "" {
			*t = nil
			return nil
		}
		*t = Tokens{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

type PushRequest struct {
	Tokens Tokens            `json:"tokens" binding:"required,min=1,dive,required"`
	Title  string            `json:"title" binding:"required"`
	Body   string            `json:"body" binding:"required"`
	Data   map[string]string `json:"data"`
}

func (r PushRequest) Message() service.PushMessage {
	return service.PushMessage{
		Tokens: r.Tokens,
		Title:  r.Title,
		Body:   r.Body,
		Data:   r.Data,
	}
}

type MailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PushResponse struct {
	Success        bool                     `json:"success"`
	Results        []service.DeliveryResult `json:"results"`
	Failed         int                      `json:"failed"`
	PartialFailure bool                     `json:"partial_failure"`
}

// normalizeBody unwraps a JSON document that arrived double encoded as a
// JSON string. An empty body is treated as an empty object.
func normalizeBody(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []byte("{}"), nil
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}

	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, err
	}
	return []byte(inner), nil
}
