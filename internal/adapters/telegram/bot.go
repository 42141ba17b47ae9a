package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
)

// Ledger is the slice of task-ledger operations the transport needs.
type Ledger interface {
	EnsureUser(ctx context.Context, userID string) error
	Add(ctx context.Context, userID string, list entities.TaskList, text string) error
	ListToday(ctx context.Context, userID string) (*entities.DayRecord, error)
	Complete(ctx context.Context, userID string, list entities.TaskList, index1 int) error
	Delete(ctx context.Context, userID string, list entities.TaskList, index1 int) error
	Reset(ctx context.Context, userID string) error
	StatsFor(ctx context.Context, userID string) (entities.Stats, error)
}

// Aggregator is the admin-facing stats view.
type Aggregator interface {
	GlobalStats(ctx context.Context) (map[string]entities.Stats, error)
}

// Bot maps inbound chat commands onto ledger calls and renders replies.
// Every inbound message gets exactly one reply; errors become short
// explanatory messages, never silence.
type Bot struct {
	api        *tgbotapi.BotAPI
	ledger     Ledger
	aggregator Aggregator
	cfg        config.BotConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// New connects to the Telegram API and registers the command menu.
func New(cfg config.BotConfig, ledger Ledger, aggregator Aggregator, log *logger.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug

	b := &Bot{
		api:        api,
		ledger:     ledger,
		aggregator: aggregator,
		cfg:        cfg,
		logger:     log,
		metrics:    m,
	}

	if err := b.registerCommandMenu(); err != nil {
		return nil, err
	}

	log.Infow("Telegram bot connected", "username", api.Self.UserName)
	return b, nil
}

func (b *Bot) registerCommandMenu() error {
	menu := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "addmain", Description: "Add a main task"},
		tgbotapi.BotCommand{Command: "addextra", Description: "Add an extra task"},
		tgbotapi.BotCommand{Command: "mytasks", Description: "Show my tasks"},
		tgbotapi.BotCommand{Command: "complete_main", Description: "Complete a main task"},
		tgbotapi.BotCommand{Command: "complete_extra", Description: "Complete an extra task"},
		tgbotapi.BotCommand{Command: "delete_main", Description: "Delete a main task"},
		tgbotapi.BotCommand{Command: "delete_extra", Description: "Delete an extra task"},
		tgbotapi.BotCommand{Command: "reset", Description: "Reset today's tasks"},
		tgbotapi.BotCommand{Command: "stats", Description: "My statistics"},
		tgbotapi.BotCommand{Command: "admin", Description: "Per-user statistics (admin)"},
	)
	if _, err := b.api.Request(menu); err != nil {
		return fmt.Errorf("register command menu: %w", err)
	}
	return nil
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Infow("Telegram update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()
	reply := b.dispatch(ctx, chatID, command, msg.CommandArguments())

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, reply)); err != nil {
		b.logger.Warnw("Reply delivery failed", "chat_id", chatID, "error", err.Error())
	}
}

// dispatch maps one inbound command to a ledger call and returns the
// reply text. Unknown input yields the help text rather than an error.
func (b *Bot) dispatch(ctx context.Context, chatID int64, command, args string) string {
	userID := strconv.FormatInt(chatID, 10)
	log := b.logger.WithUserID(userID)

	outcome := "ok"
	var reply string

	switch command {
	case "start":
		if err := b.ledger.EnsureUser(ctx, userID); err != nil {
			log.Errorw("Start failed", "error", err.Error())
			outcome, reply = "error", "Something went wrong, please try again."
			break
		}
		reply = helpText

	case "addmain":
		outcome, reply = b.handleAdd(ctx, log, userID, entities.ListMain, args)

	case "addextra":
		outcome, reply = b.handleAdd(ctx, log, userID, entities.ListExtra, args)

	case "mytasks":
		day, err := b.ledger.ListToday(ctx, userID)
		if err != nil {
			log.Errorw("List failed", "error", err.Error())
			outcome, reply = "error", "Something went wrong, please try again."
			break
		}
		reply = formatDay(day)

	case "complete_main":
		outcome, reply = b.handleComplete(ctx, log, userID, entities.ListMain, args)

	case "complete_extra":
		outcome, reply = b.handleComplete(ctx, log, userID, entities.ListExtra, args)

	case "delete_main":
		outcome, reply = b.handleDelete(ctx, log, userID, entities.ListMain, args)

	case "delete_extra":
		outcome, reply = b.handleDelete(ctx, log, userID, entities.ListExtra, args)

	case "reset":
		if err := b.ledger.Reset(ctx, userID); err != nil {
			log.Errorw("Reset failed", "error", err.Error())
			outcome, reply = "error", "Something went wrong, please try again."
			break
		}
		reply = "Today's tasks have been reset."

	case "stats":
		stats, err := b.ledger.StatsFor(ctx, userID)
		if err != nil {
			log.Errorw("Stats failed", "error", err.Error())
			outcome, reply = "error", "Something went wrong, please try again."
			break
		}
		reply = formatStats(stats)

	case "admin":
		outcome, reply = b.handleAdmin(ctx, log, chatID)

	default:
		command = "unknown"
		reply = "I didn't understand that. " + helpText
	}

	b.metrics.CommandsHandled.WithLabelValues(command, outcome).Inc()
	return reply
}

func (b *Bot) handleAdd(ctx context.Context, log *logger.Logger, userID string, list entities.TaskList, args string) (string, string) {
	err := b.ledger.Add(ctx, userID, list, args)
	switch {
	case errors.Is(err, entities.ErrEmptyTaskText):
		return "rejected", "Write the task text after the command."
	case errors.Is(err, entities.ErrMainTaskLimit):
		return "rejected", fmt.Sprintf("Limit reached: %d main tasks per day.", entities.MaxMainTasks)
	case err != nil:
		log.Errorw("Add failed", "list", list, "error", err.Error())
		return "error", "Something went wrong, please try again."
	}

	b.metrics.TasksAdded.WithLabelValues(string(list)).Inc()
	if list == entities.ListMain {
		return "ok", "Main task added."
	}
	return "ok", "Extra task added."
}

func (b *Bot) handleComplete(ctx context.Context, log *logger.Logger, userID string, list entities.TaskList, args string) (string, string) {
	index, ok := parseIndex(args)
	if !ok {
		return "rejected", "Give the task number, e.g. /complete_" + string(list) + " 1"
	}

	err := b.ledger.Complete(ctx, userID, list, index)
	switch {
	case errors.Is(err, entities.ErrTaskNotFound):
		return "rejected", "No task with that number today."
	case err != nil:
		log.Errorw("Complete failed", "list", list, "error", err.Error())
		return "error", "Something went wrong, please try again."
	}

	b.metrics.TasksCompleted.WithLabelValues(string(list)).Inc()
	return "ok", "Marked as done."
}

func (b *Bot) handleDelete(ctx context.Context, log *logger.Logger, userID string, list entities.TaskList, args string) (string, string) {
	index, ok := parseIndex(args)
	if !ok {
		return "rejected", "Give the task number, e.g. /delete_" + string(list) + " 1"
	}

	err := b.ledger.Delete(ctx, userID, list, index)
	switch {
	case errors.Is(err, entities.ErrTaskNotFound):
		return "rejected", "No task with that number today."
	case err != nil:
		log.Errorw("Delete failed", "list", list, "error", err.Error())
		return "error", "Something went wrong, please try again."
	}

	return "ok", "Task deleted."
}

func (b *Bot) handleAdmin(ctx context.Context, log *logger.Logger, chatID int64) (string, string) {
	if !b.cfg.IsAdmin(chatID) {
		return "rejected", "You don't have access to this command."
	}

	stats, err := b.aggregator.GlobalStats(ctx)
	if err != nil {
		log.Errorw("Global stats failed", "error", err.Error())
		return "error", "Something went wrong, please try again."
	}

	order := make([]string, 0, len(stats))
	for userID := range stats {
		order = append(order, userID)
	}
	sort.Strings(order)

	return "ok", formatGlobalStats(stats, order)
}

// Send implements ports.Sender for the notifier's broadcasts. The actual
// API call has no context support, so it runs in a goroutine and the
// caller's deadline wins; an abandoned send finishes in the background.
func (b *Bot) Send(ctx context.Context, userID string, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q: %w", userID, err)
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := b.api.Send(tgbotapi.NewMessage(chatID, text))
		done <- sendErr
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func parseIndex(args string) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}
