package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"niche-pacer/internal/domain"
)

type stubSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestSendReport(t *testing.T) {
	sender := &stubSender{}
	n := NewNotifier(sender, 42)
	r := domain.Report{
		Day:    "2024-05-10",
		Niches: []domain.NicheCount{{Tag: "travel", Count: 2}, {Tag: "food", Count: 0}},
		Total:  2,
	}
	if err := n.SendReport(context.Background(), r); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("ожидали одно сообщение, получили %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 42 {
		t.Fatalf("неожиданный чат: %d", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "#travel: 2") || !strings.Contains(msg.Text, "#food: 0") {
		t.Fatalf("в сводке нет категорий: %q", msg.Text)
	}
}

func TestSendReportError(t *testing.T) {
	sender := &stubSender{err: errors.New("forbidden")}
	err := NewNotifier(sender, 1).SendReport(context.Background(), domain.Report{Day: "2024-05-10"})
	if !errors.Is(err, sender.err) {
		t.Fatalf("ожидали ошибку отправки, получили %v", err)
	}
}
