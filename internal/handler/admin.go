package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/service"
)

// Reminder triggers the reminder sweep outside its schedule.
type Reminder interface {
	RemindNow(ctx context.Context) error
}

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	game     *service.GameService
	reminder Reminder
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(game *service.GameService, reminder Reminder) *AdminHandler {
	return &AdminHandler{game: game, reminder: reminder}
}

// SetReminder injects the reminder scheduler. It is created after the bot
// because it sends through the bot itself.
func (h *AdminHandler) SetReminder(r Reminder) { h.reminder = r }

// HandleAdminStats handles the /admin_stats command.
func (h *AdminHandler) HandleAdminStats(c tele.Context) error {
	ctx := context.Background()
	stats := h.game.Community(ctx)
	return c.Send(fmt.Sprintf(
		"📊 Game statistics\n\n"+
			"Day: %d/%d\nParticipants: %d (active %d, removed %d)\n"+
			"Reports today: %d/%d\nReports total: %d",
		stats.CurrentDay, model.TotalDays,
		stats.TotalParticipants, stats.Active, stats.Removed,
		stats.ReportsToday, stats.Active, stats.TotalReports))
}

// HandleAdminUsers handles the /admin_users command.
func (h *AdminHandler) HandleAdminUsers(c tele.Context) error {
	ctx := context.Background()
	data := h.game.Data(ctx)
	if len(data.Participants) == 0 {
		return c.Send("No participants yet")
	}
	var b strings.Builder
	b.WriteString("👥 Participants:\n\n")
	for _, p := range data.Participants {
		marker := "✅"
		if p.Status != model.StatusActive {
			marker = "❌"
		}
		fmt.Fprintf(&b, "%s %s (@%s, id %d), reports: %d\n",
			marker, p.GameName, p.Username, p.UserID, data.ReportsCount(p.UserID))
	}
	return c.Send(b.String())
}

// HandleAdminRemind handles the /admin_remind command, triggering the
// reminder sweep immediately.
func (h *AdminHandler) HandleAdminRemind(c tele.Context) error {
	if h.reminder == nil {
		return c.Reply("Reminders are not running")
	}
	if err := h.reminder.RemindNow(context.Background()); err != nil {
		return c.Reply("❌ Failed to send reminders")
	}
	return c.Reply("🔔 Reminders sent")
}

// HandleAdminDay handles the /admin_day command.
// Usage: /admin_day <n> to override the current day, /admin_day off to
// clear the override.
func (h *AdminHandler) HandleAdminDay(c tele.Context) error {
	ctx := context.Background()
	arg := strings.TrimSpace(c.Message().Payload)
	if arg == "" {
		return c.Reply("Usage: /admin_day <number> or /admin_day off")
	}
	if strings.EqualFold(arg, "off") {
		if err := h.game.UpdateSettings(ctx, map[string]string{model.SettingCurrentDay: ""}); err != nil {
			return c.Reply("❌ Failed to update settings")
		}
		return c.Reply(fmt.Sprintf("✅ Day override cleared, computed day is %d", h.game.CurrentDay(ctx)))
	}
	day, err := strconv.Atoi(arg)
	if err != nil {
		return c.Reply("Usage: /admin_day <number> or /admin_day off")
	}
	if err := h.game.UpdateSettings(ctx, map[string]string{model.SettingCurrentDay: strconv.Itoa(day)}); err != nil {
		return c.Reply("❌ Failed to update settings")
	}
	return c.Reply(fmt.Sprintf("✅ Current day overridden to %d", day))
}

// HandleAdminRefresh handles the /admin_refresh command, forcing a
// reconciliation with the remote spreadsheet.
func (h *AdminHandler) HandleAdminRefresh(c tele.Context) error {
	if err := h.game.Refresh(context.Background()); err != nil {
		return c.Reply(fmt.Sprintf("⚠️ Refresh failed: %v", err))
	}
	return c.Reply("🔄 Local data reconciled with the remote spreadsheet")
}

// HandleSetGroup handles the /set_group command, binding the game chat
// (and forum thread, when present) for announcements.
func (h *AdminHandler) HandleSetGroup(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil || chat.Type == tele.ChatPrivate {
		return c.Reply("Run this command inside the game group")
	}
	var threadID int64
	if msg := c.Message(); msg != nil && msg.ThreadID != 0 {
		threadID = int64(msg.ThreadID)
	}
	if err := h.game.SaveChatConfig(ctx, chat.ID, threadID); err != nil {
		return c.Reply("❌ Failed to save chat configuration")
	}
	return c.Reply("✅ Game chat configured")
}
