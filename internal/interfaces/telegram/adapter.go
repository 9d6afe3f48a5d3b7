package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/pkg/safego"
)

// Config configures the Telegram channel.
type Config struct {
	BotToken   string
	AllowIDs   []int64
	DMPolicy   string // open / allowlist / disabled
	ClinicName string
}

// allows reports whether a direct message from the user may reach the
// triage pipeline.
func (c *Config) allows(userID int64) bool {
	switch c.DMPolicy {
	case "disabled":
		return false
	case "allowlist":
		return c.inAllowlist(userID)
	default: // "open" or unset
		// An explicit allowlist narrows the open policy too.
		if len(c.AllowIDs) > 0 {
			return c.inAllowlist(userID)
		}
		return true
	}
}

// inAllowlist treats an empty list as allow-all.
func (c *Config) inAllowlist(userID int64) bool {
	if len(c.AllowIDs) == 0 {
		return true
	}
	for _, id := range c.AllowIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Adapter bridges Telegram direct messages into the triage pipeline.
// Each private chat maps to one patient record; group chats are ignored.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	config   *Config
	triage   *usecase.TriageUseCase
	contacts *ContactStore
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// NewAdapter authenticates against the Bot API and prepares the channel.
// The contact store is optional; pass nil to skip chat bookkeeping.
func NewAdapter(config *Config, triage *usecase.TriageUseCase, contacts *ContactStore, logger *zap.Logger) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Telegram bot authorized",
		zap.String("username", bot.Self.UserName),
	)

	return &Adapter{
		bot:      bot,
		config:   config,
		triage:   triage,
		contacts: contacts,
		logger:   logger,
	}, nil
}

// Start begins long-polling for updates. It returns immediately; the
// polling loop runs until Stop or the parent context is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	innerCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.setupCommands(); err != nil {
		a.logger.Warn("Failed to set bot commands", zap.Error(err))
	}

	updates := a.bot.GetUpdatesChan(u)

	a.logger.Info("Starting Telegram polling")

	safego.Go(a.logger, "telegram-polling", func() {
		for {
			select {
			case <-innerCtx.Done():
				a.bot.StopReceivingUpdates()
				a.logger.Info("Telegram channel stopped")
				return
			case update := <-updates:
				safego.Go(a.logger, "telegram-update", func() {
					a.handleUpdate(innerCtx, update)
				})
			}
		}
	})

	return nil
}

// Stop halts the polling loop.
func (a *Adapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

// setupCommands publishes the command menu patients see in the chat.
func (a *Adapter) setupCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "O que este assistente faz"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := a.bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Only fresh messages matter here. Edits, callbacks and inline
	// queries have no meaning for a triage conversation.
	if update.Message == nil {
		return
	}
	a.handleMessage(ctx, update.Message)
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// The clinic bot only talks to patients directly.
	if !msg.Chat.IsPrivate() {
		return
	}

	if !a.config.allows(msg.From.ID) {
		a.logger.Warn("Unauthorized Telegram chat",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	senderID := senderIDFor(msg.Chat.ID)

	// Keep the chat-to-patient binding current for the attendants.
	if a.contacts != nil {
		if err := a.contacts.Record(msg.Chat.ID, senderID, msg.From.UserName, displayName(msg.From)); err != nil {
			a.logger.Warn("Failed to record Telegram contact",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Error(err),
			)
		}
	}

	if msg.IsCommand() && msg.Command() == "start" {
		a.sendText(msg.Chat.ID, startMessage(a.config.ClinicName))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Photos and documents carry their description in the caption.
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		a.logger.Debug("Ignoring Telegram message without text",
			zap.Int64("chat_id", msg.Chat.ID),
		)
		return
	}

	a.sendTyping(msg.Chat.ID)

	result, err := a.triage.Execute(ctx, usecase.TriageCommand{
		SenderID:   senderID,
		SenderName: displayName(msg.From),
		Message:    text,
		Channel:    entity.ChannelTelegram,
		OccurredAt: time.Unix(int64(msg.Date), 0),
	})
	if err != nil {
		a.logger.Error("Triage failed for Telegram message",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err),
		)
		a.sendText(msg.Chat.ID, "Desculpe, tivemos um problema técnico por aqui. Pode tentar de novo em instantes?")
		return
	}

	a.sendText(msg.Chat.ID, result.Reply)
}

// sendText delivers a plain-text reply. No parse mode: replies are
// written for patients, not for markup.
func (a *Adapter) sendText(chatID int64, text string) {
	for _, chunk := range chunkText(text) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := a.bot.Send(msg); err != nil {
			a.logger.Error("Failed to send Telegram reply",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			return
		}
	}
}

// sendTyping shows the typing indicator while triage runs.
func (a *Adapter) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	a.bot.Send(action)
}

// senderIDFor derives the gateway-wide patient identifier for a chat.
// The tg: prefix keeps Telegram ids from colliding with phone numbers.
func senderIDFor(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

// displayName builds the patient-facing name from the Telegram profile.
// First and last name are what the person typed into Telegram; the
// @username is a fallback for profiles without a visible name.
func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	return user.UserName
}

func startMessage(clinicName string) string {
	return fmt.Sprintf(`Olá! Sou o assistente virtual da %s. 🦷

Posso ajudar com:
• Agendar uma consulta
• Cancelar um horário
• Informações sobre valores

É só me mandar uma mensagem contando o que você precisa.`, clinicName)
}
