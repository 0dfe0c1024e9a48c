// internal/app/notification_service.go
package app

import (
	"context"
	"fmt"
	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram" // Import from domain

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3" // For telebot.SendOptions
)

// Notifier delivers plain-text messages to the one configured chat.
// It is a containment boundary: whatever the transport does, Send reports it as an
// error wrapping homework.ErrNotify and never panics.
type Notifier struct {
	telegramClient domainTelegram.Client
	chatID         int64
	logger         *logrus.Entry
}

func NewNotifier(tc domainTelegram.Client, chatID int64, logger *logrus.Entry) *Notifier {
	return &Notifier{
		telegramClient: tc,
		chatID:         chatID,
		logger:         logger.WithField("chat_id", chatID),
	}
}

// Send delivers text to the configured chat.
func (n *Notifier) Send(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: transport panic: %v", homework.ErrNotify, r)
			n.logger.WithError(err).Error("Failed to send message")
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", homework.ErrNotify, ctxErr)
		n.logger.WithError(err).Error("Failed to send message")
		return err
	}

	if sendErr := n.telegramClient.SendMessage(n.chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeDefault}); sendErr != nil {
		err = fmt.Errorf("%w: %w", homework.ErrNotify, sendErr)
		n.logger.WithError(err).Error("Failed to send message")
		return err
	}

	n.logger.WithField("text", text).Info("Message sent")
	return nil
}
