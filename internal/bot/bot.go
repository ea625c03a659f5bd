// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/config"
	"goal-challenge-bot/internal/handler"
	"goal-challenge-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot  *tele.Bot
	cfg  *config.Config
	game *service.GameService

	commonHandler  *handler.CommonHandler
	goalsHandler   *handler.GoalsHandler
	reportsHandler *handler.ReportsHandler
	adminHandler   *handler.AdminHandler
	groupHandler   *handler.GroupHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config   *config.Config
	Game     *service.GameService
	Reminder handler.Reminder
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:  teleBot,
		cfg:  deps.Config,
		game: deps.Game,
	}

	b.commonHandler = handler.NewCommonHandler(deps.Game)
	b.goalsHandler = handler.NewGoalsHandler(deps.Game)
	b.reportsHandler = handler.NewReportsHandler(deps.Game)
	b.adminHandler = handler.NewAdminHandler(deps.Game, deps.Reminder)
	b.groupHandler = handler.NewGroupHandler(deps.Game)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.commonHandler.HandleStart)
	b.bot.Handle("/help", b.commonHandler.HandleHelp)
	b.bot.Handle("/register", b.commonHandler.HandleRegister)
	b.bot.Handle("/time", b.commonHandler.HandleTime)
	b.bot.Handle("/stats", b.commonHandler.HandleStats)

	b.bot.Handle("/goals", b.goalsHandler.HandleGoals)
	b.bot.Handle("/setgoal", b.goalsHandler.HandleSetGoal)

	b.bot.Handle("/report", b.reportsHandler.HandleReport)
	b.bot.Handle("/rest", b.reportsHandler.HandleRest)
	b.bot.Handle("/myreport", b.reportsHandler.HandleMyReport)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_stats", b.adminHandler.HandleAdminStats)
	adminGroup.Handle("/admin_users", b.adminHandler.HandleAdminUsers)
	adminGroup.Handle("/admin_remind", b.adminHandler.HandleAdminRemind)
	adminGroup.Handle("/admin_day", b.adminHandler.HandleAdminDay)
	adminGroup.Handle("/admin_refresh", b.adminHandler.HandleAdminRefresh)
	adminGroup.Handle("/set_group", b.adminHandler.HandleSetGroup)

	b.bot.Handle(tele.OnAddedToGroup, b.groupHandler.HandleAddedToGroup)
}

// SetReminder wires the reminder scheduler into the admin handlers.
func (b *Bot) SetReminder(r handler.Reminder) {
	b.adminHandler.SetReminder(r)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// Telebot returns the underlying telebot instance.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}
