package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"labportal/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sender delivers one message and returns a delivery id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender writes messages to the log as an outbox. Mail delivery itself happens outside this process.
type LogSender struct {
	logger *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	if msg.Recipient == "" {
		return "", errors.New("recipient is empty")
	}
	id := uuid.NewString()
	s.logger.Info().
		Str("message_id", id).
		Str("to", msg.Recipient).
		Str("subject", msg.Subject).
		Msg("outbox message")
	return id, nil
}

// TelegramSender posts admin messages to every configured chat.
type TelegramSender struct {
	bot     domain.TelegramSender
	chatIDs []int64
}

func NewTelegramSender(bot domain.TelegramSender, chatIDs []int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatIDs: chatIDs}
}

// Send succeeds if at least one chat accepted the message; the returned id lists accepted message ids.
func (s *TelegramSender) Send(_ context.Context, msg Message) (string, error) {
	if len(s.chatIDs) == 0 {
		return "", errors.New("no admin chats configured")
	}

	text := msg.Subject + "\n\n" + msg.Body
	var ids []string
	var errs []error
	for _, chatID := range s.chatIDs {
		sent, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		ids = append(ids, strconv.Itoa(sent.MessageID))
	}
	if len(ids) == 0 {
		return "", errors.Join(errs...)
	}
	return strings.Join(ids, ","), nil
}

// MultiSender fans a message out to several senders and succeeds if any did.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, msg Message) (string, error) {
	var ids []string
	var errs []error
	for _, s := range m {
		id, err := s.Send(ctx, msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		if len(errs) == 0 {
			return "", errors.New("no senders configured")
		}
		return "", errors.Join(errs...)
	}
	return strings.Join(ids, ","), nil
}
