// Package telegram provides a small Telegram bot that answers questions about
// the loaded dataset: monthly summaries for an individual or group, and the
// lists of known subjects and groups.
//
// Replies use MarkdownV2 and are sent with retry logic. Only the configured
// chat is answered.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/selection"
	"github.com/rewired-gh/bodyweight-dash/internal/trend"
)

// Client handles the Telegram bot
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands answers bot commands until ctx is canceled.
func (c *Client) ListenForCommands(ctx context.Context, ds *models.Dataset, builder *trend.Builder) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	logger.Info("Telegram bot @%s listening for commands", c.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			logger.Info("Telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Chat.ID != c.chatID {
				logger.Debug("Ignoring command from chat %d", update.Message.Chat.ID)
				continue
			}

			reply := HandleCommand(ds, builder, update.Message.Command(), update.Message.CommandArguments())
			if err := c.Send(ctx, reply); err != nil {
				logger.Error("Failed to answer /%s: %v", update.Message.Command(), err)
			}
		}
	}
}

// Send delivers a MarkdownV2 message to the configured chat
func (c *Client) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// HandleCommand builds the reply for one bot command.
func HandleCommand(ds *models.Dataset, builder *trend.Builder, command, args string) string {
	switch command {
	case "summary":
		fields := strings.Fields(args)
		mode := ""
		target := "all"
		if len(fields) > 0 {
			mode = fields[0]
		}
		if len(fields) > 1 {
			target = strings.Join(fields[1:], " ")
		}
		f, err := selection.Resolve(ds, mode, target)
		if err != nil {
			return escapeMarkdownV2(fmt.Sprintf("%v. Usage: /summary <individual|group> [target]", err))
		}
		return FormatSummary(builder.Aggregate(ds, f))
	case "subjects":
		return formatList("Subjects", ds.Subjects())
	case "groups":
		return formatList("Positions", ds.Groups())
	default:
		return usage()
	}
}

// FormatSummary renders monthly averages as a MarkdownV2 message
func FormatSummary(agg models.Aggregates) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(escapeMarkdownV2("Body Weight per Month for " + agg.Filter.DisplayTarget()))
	b.WriteString("*\n\n")

	if len(agg.Monthly) == 0 {
		b.WriteString(escapeMarkdownV2("No measurements recorded."))
		return b.String()
	}

	for _, month := range agg.Monthly {
		line := fmt.Sprintf("%s: %s lbs (%d readings)",
			month.Start.Format("Jan 06"), trend.FormatWeight(month.MeanWeight), month.Count)
		b.WriteString(escapeMarkdownV2(line))
		b.WriteString("\n")
	}
	return b.String()
}

func formatList(title string, values []string) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(escapeMarkdownV2(fmt.Sprintf("%s (%d)", title, len(values))))
	b.WriteString("*\n")
	for _, v := range values {
		b.WriteString(escapeMarkdownV2("- " + v))
		b.WriteString("\n")
	}
	return b.String()
}

func usage() string {
	return escapeMarkdownV2("Commands:\n" +
		"/summary <individual|group> [target] - monthly averages\n" +
		"/subjects - list individuals\n" +
		"/groups - list positions")
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
