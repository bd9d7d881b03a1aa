// Package telegram runs the question answering agent as a long-polling
// Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ragbot/src/core/agent"
	"ragbot/src/log"
	"ragbot/src/storage/postgres/exchangectrl"
)

// User-facing replies.
const (
	greetingMessage     = "Hello! I am a RAG-based bot. Ask me anything."
	noAnswerMessage     = "No answer produced."
	tooComplexMessage   = "Your question is too complex. Please refine or simplify it."
	invalidInputMessage = "Invalid input. Please check your message and try again."
	runtimeErrorMessage = "A runtime error occurred. Please try again later."
	genericErrorMessage = "An unexpected error occurred. Please try again later."
)

const (
	// DefaultQuestionTimeout bounds one agent run.
	DefaultQuestionTimeout = 2 * time.Minute

	// updateTimeoutSeconds is the long-poll timeout sent to Telegram.
	updateTimeoutSeconds = 30
)

// AgentRunner answers a single question.
type AgentRunner interface {
	Run(ctx context.Context, question string) (string, error)
}

// ExchangeRecorder persists answered questions for later review.
type ExchangeRecorder interface {
	Create(ctx context.Context, platform, userID, question, answer, status string) (*exchangectrl.Exchange, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	engine    AgentRunner
	exchanges ExchangeRecorder
	timeout   time.Duration
}

type Option func(*Bot)

func WithQuestionTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithExchangeRecorder(recorder ExchangeRecorder) Option {
	return func(b *Bot) {
		b.exchanges = recorder
	}
}

func NewBot(token string, engine AgentRunner, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("agent runner is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	b := &Bot{
		api:     api,
		engine:  engine,
		timeout: DefaultQuestionTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Run polls Telegram for updates until the context is cancelled. Each message
// is handled on its own goroutine so one slow question does not block others.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("telegram bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		if msg.Command() == "start" {
			log.Info("start command received", "userID", senderID(msg))
			b.reply(msg.Chat.ID, greetingMessage)
		}
		return
	}

	question := msg.Text
	if question == "" {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	answer, err := b.engine.Run(runCtx, question)
	if err != nil && !errors.Is(err, agent.ErrStepLimit) {
		log.Error(err, "agent run failed", "userID", senderID(msg))
	}

	b.recordExchange(ctx, msg, question, answer, err)
	b.reply(msg.Chat.ID, replyFor(answer, err))
}

// replyFor maps an agent outcome to the message the user sees. Internal error
// details never leak into the chat.
func replyFor(answer string, err error) string {
	switch {
	case errors.Is(err, agent.ErrStepLimit):
		return tooComplexMessage
	case errors.Is(err, agent.ErrEmptyQuestion):
		return invalidInputMessage
	case errors.Is(err, agent.ErrNoPassages):
		return runtimeErrorMessage
	case err != nil:
		return genericErrorMessage
	case strings.TrimSpace(answer) == "":
		return noAnswerMessage
	}
	return answer
}

// recordExchange is best effort: a storage failure must not block the reply.
func (b *Bot) recordExchange(ctx context.Context, msg *tgbotapi.Message, question, answer string, runErr error) {
	if b.exchanges == nil {
		return
	}

	status := exchangectrl.StatusAnswered
	switch {
	case errors.Is(runErr, agent.ErrStepLimit):
		status = exchangectrl.StatusTooComplex
	case runErr != nil:
		status = exchangectrl.StatusFailed
	}

	if _, err := b.exchanges.Create(ctx, "telegram", senderID(msg), question, answer, status); err != nil {
		log.Error(err, "failed to record exchange", "platform", "telegram")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Error(err, "failed to send reply", "chatID", chatID)
	}
}

func senderID(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	return strconv.FormatInt(msg.From.ID, 10)
}
