// Package telegram exposes the advisor, scanner and reference tables as a
// Telegram bot. Every chat gets its own transcript and scanner.
package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"cyberguard/internal/advisor"
	"cyberguard/internal/monitor"
	"cyberguard/internal/scanner"
	"cyberguard/internal/transcript"
)

const resetCmd = "reset_ctx"

type chat struct {
	transcript *transcript.Controller
	scanner    *scanner.Scanner
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	advisor *advisor.Advisor
	monitor *monitor.Simulator
	logger  zerolog.Logger

	scanOpts []scanner.Option

	mu    sync.Mutex
	chats map[int64]*chat
	wg    sync.WaitGroup
}

type Option func(*Bot)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// WithScanOptions configures the scanner of every chat.
func WithScanOptions(opts ...scanner.Option) Option {
	return func(b *Bot) { b.scanOpts = append(b.scanOpts, opts...) }
}

// New connects to the Bot API with botToken.
func New(botToken string, adv *advisor.Advisor, mon *monitor.Simulator, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, adv, mon, opts...)
	b.api = api
	return b, nil
}

func newBot(s sender, adv *advisor.Advisor, mon *monitor.Simulator, opts ...Option) *Bot {
	b := &Bot{
		s:       s,
		advisor: adv,
		monitor: mon,
		logger:  zerolog.Nop(),
		chats:   make(map[int64]*chat),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start polls for updates until ctx is cancelled. Updates are handled
// concurrently; a chat that is still waiting on a reply answers further
// messages with a busy notice.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.api.Self.UserName).Msg("telegram bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info().Msg("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

// chatFor returns the surface of chatID, creating it on first contact.
func (b *Bot) chatFor(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.chats[chatID]; ok {
		return c
	}
	id := "telegram:" + strconv.FormatInt(chatID, 10)
	logger := b.logger.With().Int64("chat_id", chatID).Logger()
	c := &chat{
		transcript: transcript.New(b.advisor.Session(id), transcript.WithLogger(logger)),
		scanner:    scanner.New(b.advisor.OneShot(), append([]scanner.Option{scanner.WithLogger(logger)}, b.scanOpts...)...),
	}
	b.chats[chatID] = c
	return c
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menuKeyboard()
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ล้างบทสนทนา", resetCmd),
		),
	)
}
