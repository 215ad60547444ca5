package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/usecase/report"
)

// Sender — часть tgbotapi.BotAPI, нужная для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет дневную сводку в чат Telegram.
type Notifier struct {
	bot    Sender
	chatID int64
}

var _ domain.ReportNotifier = (*Notifier)(nil)

// NewNotifier создаёт отправителя сводок.
func NewNotifier(bot Sender, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// SendReport реализует domain.ReportNotifier.
func (n *Notifier) SendReport(ctx context.Context, r domain.Report) error {
	for _, part := range SplitMessage(report.Format(r), MessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.chatID, part)
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := n.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(n.chatID, 10), start, err)
		if err != nil {
			return fmt.Errorf("отправка сводки в чат %d: %w", n.chatID, err)
		}
	}
	return nil
}
