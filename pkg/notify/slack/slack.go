// Package slack sends watcher alerts to a Slack channel via the
// chat.postMessage web API.
package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Sender posts messages to a single Slack channel using a bot token.
type Sender struct {
	channel string
	token   string
	client  *http.Client
	logger  *logrus.Logger
}

// New creates a Sender for channel, authenticated with token.
func New(channel, token string, logger *logrus.Logger) *Sender {
	return &Sender{
		channel: channel,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Send posts text to the configured channel. Failures are logged and
// swallowed rather than propagated, since a dropped chat notification
// is never worth stalling the watcher's slot loop over.
func (s *Sender) Send(text string) {
	s.send(defaultPostMessageURL, text)
}

func (s *Sender) send(url, text string) {
	body, err := json.Marshal(postMessageRequest{Channel: s.channel, Text: text})
	if err != nil {
		s.logger.WithError(err).Warn("failed to encode Slack message")
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.WithError(err).Warn("failed to build Slack request")
		return
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Warn("failed to reach Slack")
		return
	}
	defer resp.Body.Close()

	var parsed postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		s.logger.WithError(err).Warn("failed to decode Slack response")
		return
	}
	if !parsed.OK {
		s.logger.WithField("error", parsed.Error).Warn("Slack rejected the message")
	}
}
