package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/ratelimit"
)

// ErrNotConfigured is returned when a send is attempted without a bot token.
var ErrNotConfigured = errors.New("telegram notifier is not configured")

// Notifier pushes backtest reports to one configured chat. Every send waits
// on a per-chat limiter and a global limiter so bursts from the scheduler
// stay under the Bot API flood control.
type Notifier struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           *telebot.Bot
	recipient     telebot.ChatID
	globalLimiter *rate.Limiter
	chatLimiters  *ratelimit.PerKey
}

func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) (*Notifier, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	return &Notifier{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		recipient:     telebot.ChatID(chatID),
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.MaxGlobalRequestPerSecond), cfg.MaxGlobalRequestPerSecond),
		chatLimiters:  ratelimit.NewPerKey(rate.Limit(cfg.MaxChatRequestPerSecond), cfg.MaxChatRequestPerSecond),
	}, nil
}

// Enabled reports whether a bot is wired in. Callers hold a nil Notifier
// when no token is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.bot != nil
}

// SendBacktestReport delivers the formatted run summary to the configured
// chat.
func (n *Notifier) SendBacktestReport(ctx context.Context, result *dto.RunResult) error {
	return n.SendMessage(ctx, FormatBacktestReport(result), telebot.ModeMarkdownV2)
}

// SendErrorAlert reports a failed scheduled run to the configured chat.
func (n *Notifier) SendErrorAlert(ctx context.Context, at time.Time, jobName string, cause error) error {
	return n.SendMessage(ctx, FormatErrorAlert(at, jobName, cause), telebot.ModeMarkdownV2)
}

// SendMessage delivers raw text to the configured chat after clearing both
// rate limiters.
func (n *Notifier) SendMessage(ctx context.Context, text string, opts ...interface{}) error {
	if !n.Enabled() {
		return ErrNotConfigured
	}
	if err := n.waitLimits(ctx); err != nil {
		return err
	}
	if _, err := n.bot.Send(n.recipient, text, opts...); err != nil {
		n.log.ErrorContext(ctx, "Failed to send telegram message", logger.ErrorField(err))
		return err
	}
	return nil
}

func (n *Notifier) waitLimits(ctx context.Context) error {
	if err := n.chatLimiters.Get(n.recipient.Recipient()).Wait(ctx); err != nil {
		return fmt.Errorf("chat rate limit: %w", err)
	}
	if err := n.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limit: %w", err)
	}
	return nil
}
