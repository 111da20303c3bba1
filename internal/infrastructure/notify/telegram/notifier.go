// Package telegram adapts go-telegram-bot-api/telegram-bot-api to the
// notify.Notifier port: resolve the domain user id to its Telegram chat id
// and send a plain-text message.
package telegram

import (
	"context"
	"errors"
	"fmt"

	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/observability"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends order-lifecycle messages over Telegram. Users created
// through the admin panel (Login/PasswordHash set, no TelegramID) are
// silently skipped — there is no chat to deliver to.
type Notifier struct {
	api   *tgbotapi.BotAPI
	users domuser.Repository
	log   observability.Logger
}

func New(token string, users domuser.Repository, tel observability.Observability) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot: %w", err)
	}
	if tel == nil {
		tel = observability.Nop()
	}
	return &Notifier{api: api, users: users, log: tel.Logger().With(observability.F("component", "telegram-notifier"))}, nil
}

func (n *Notifier) Notify(ctx context.Context, userID int64, message string) error {
	u, err := n.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domuser.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.TelegramID == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(*u.TelegramID, message)
	if _, err := n.api.Send(msg); err != nil {
		n.log.Warn("telegram_send_failed", observability.F("user_id", userID), observability.F("error", err.Error()))
		return err
	}
	return nil
}
