// Package reminder runs the wall-clock-triggered sweeps: daily report
// reminders, the removal sweep and the daily stats announcement.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/clock"
	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/service"
)

// Default sweep times, overridable through settings.
const (
	defaultReminderTime = "18:00"
	defaultRemovalTime  = "23:30"
)

// lateHour marks reminders sent in the evening as last-call warnings.
const lateHour = 20

// Sender is the part of the Telegram bot the scheduler needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Scheduler fires the configured sweeps once per matching minute.
type Scheduler struct {
	game *service.GameService
	bot  Sender
}

// NewScheduler creates a new Scheduler.
func NewScheduler(game *service.GameService, bot Sender) *Scheduler {
	return &Scheduler{game: game, bot: bot}
}

// Run ticks every minute until ctx is cancelled. Sweep failures are logged;
// the loop never dies.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastFired := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		settings := s.game.Settings(ctx)
		now := clock.Now(settings)
		hhmm := now.Format("15:04")
		if hhmm == lastFired {
			continue
		}
		lastFired = hhmm

		switch hhmm {
		case settings.ReminderTime(defaultReminderTime):
			if err := s.RemindNow(ctx); err != nil {
				log.Error().Err(err).Msg("Reminder sweep failed")
			}
			s.announceDailyStats(ctx)
		case settings.RemovalTime(defaultRemovalTime):
			s.removalSweep(ctx)
		}
	}
}

// RemindNow messages every active participant without a report for the
// current day and posts a summary to the game thread.
func (s *Scheduler) RemindNow(ctx context.Context) error {
	missing, day := s.game.MissingToday(ctx)
	settings := s.game.Settings(ctx)
	late := clock.Now(settings).Hour() >= lateHour

	for _, p := range missing {
		text := fmt.Sprintf(
			"🔔 Reminder: you have not sent your report for day %d yet.\nUse /report or /rest.", day)
		if late {
			text = fmt.Sprintf(
				"⚠️ Last call! No report for day %d.\n"+
					"Participants without a report by the end of the day leave the game. Use /report now.", day)
		}
		if _, err := s.bot.Send(recipient(p.UserID), text); err != nil {
			// User may have blocked the bot; keep going.
			log.Warn().Err(err).Int64("user_id", p.UserID).Msg("Failed to deliver reminder")
		}
		time.Sleep(time.Second)
	}

	if len(missing) > 0 {
		s.announce(ctx, fmt.Sprintf(
			"📊 Day %d reminder: %d participants have not reported yet.", day, len(missing)))
	}
	return nil
}

// removalSweep removes inactive participants and announces the result.
func (s *Scheduler) removalSweep(ctx context.Context) {
	result, err := s.game.RemoveInactive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Removal sweep failed")
		return
	}
	if result.Removed() == 0 {
		return
	}

	for _, p := range result.NoReport {
		s.notifyRemoved(p.UserID, fmt.Sprintf(
			"❌ You were removed from the game: no report for day %d.", result.Day))
	}
	for _, p := range result.LowProgress {
		s.notifyRemoved(p.UserID, fmt.Sprintf(
			"❌ You were removed from the game: fewer than 2 goals progressed on day %d.", result.Day))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ Removal sweep, day %d. Removed: %d\n", result.Day, result.Removed())
	if len(result.NoReport) > 0 {
		fmt.Fprintf(&b, "\n📝 No report (%d): %s", len(result.NoReport), names(result.NoReport))
	}
	if len(result.LowProgress) > 0 {
		fmt.Fprintf(&b, "\n📉 Low progress (%d): %s", len(result.LowProgress), names(result.LowProgress))
	}
	s.announce(ctx, b.String())
}

// announceDailyStats posts the daily summary to the game thread.
func (s *Scheduler) announceDailyStats(ctx context.Context) {
	stats := s.game.Community(ctx)
	text := fmt.Sprintf(
		"📊 Daily stats, day %d/%d\n\n👥 Active: %d\n✅ Reports today: %d/%d",
		stats.CurrentDay, model.TotalDays, stats.Active, stats.ReportsToday, stats.Active)
	if stats.ReportsToday < stats.Active {
		text += fmt.Sprintf("\n⚠️ Still missing: %d", stats.Active-stats.ReportsToday)
	}
	s.announce(ctx, text)
}

// announce sends a message to the configured game chat/thread, if any.
func (s *Scheduler) announce(ctx context.Context, text string) {
	settings := s.game.Settings(ctx)
	chatID, ok := settings.ChatID()
	if !ok {
		return
	}
	var opts []interface{}
	if threadID, ok := settings.ThreadID(); ok {
		opts = append(opts, &tele.SendOptions{ThreadID: int(threadID)})
	}
	if _, err := s.bot.Send(recipient(chatID), text, opts...); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to post announcement")
	}
}

func (s *Scheduler) notifyRemoved(userID int64, text string) {
	if _, err := s.bot.Send(recipient(userID), text); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to notify removed participant")
	}
}

func names(ps []model.Participant) string {
	const maxShown = 5
	var out []string
	for i, p := range ps {
		if i == maxShown {
			out = append(out, fmt.Sprintf("and %d more", len(ps)-maxShown))
			break
		}
		out = append(out, p.GameName)
	}
	return strings.Join(out, ", ")
}

// recipient wraps a raw Telegram ID for telebot.
type recipient int64

func (r recipient) Recipient() string { return fmt.Sprintf("%d", int64(r)) }
