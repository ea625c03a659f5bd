// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/service"
)

// CommonHandler handles registration and general commands.
type CommonHandler struct {
	game *service.GameService
}

// NewCommonHandler creates a new CommonHandler.
func NewCommonHandler(game *service.GameService) *CommonHandler {
	return &CommonHandler{game: game}
}

// HandleStart handles the /start command.
func (h *CommonHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if h.game.IsRegistered(ctx, sender.ID) {
		day := h.game.CurrentDay(ctx)
		return c.Send(fmt.Sprintf(
			"👋 Welcome back! Today is day %d of %d.\n"+
				"Use /report to submit your daily report and /goals to review your goals.",
			day, model.TotalDays))
	}
	return c.Send(
		"🎯 Welcome to the 90-day goal challenge!\n\n" +
			"Set 10 personal goals and report your progress every day.\n" +
			"Start with: /register <your display name>")
}

// HandleRegister handles the /register command.
// Usage: /register <display name>
func (h *CommonHandler) HandleRegister(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	gameName := strings.TrimSpace(c.Message().Payload)
	if gameName == "" {
		gameName = strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	}
	fullName := strings.TrimSpace(sender.FirstName + " " + sender.LastName)

	err := h.game.Register(ctx, sender.ID, sender.Username, fullName, gameName)
	if err == service.ErrAlreadyInGame {
		return c.Reply("✅ You are already registered. Use /goals to set your goals.")
	}
	if err != nil {
		return c.Reply("❌ Registration failed, please try again later")
	}
	return c.Reply(fmt.Sprintf(
		"🎉 Registered as %s!\n\nNow set your 10 goals:\n/setgoal 1 <goal text>", gameName))
}

// HandleHelp handles the /help command.
func (h *CommonHandler) HandleHelp(c tele.Context) error {
	return c.Send(
		"📖 Commands:\n" +
			"/register <name> — join the challenge\n" +
			"/goals — show your goals\n" +
			"/setgoal <n> <text> — set goal number n\n" +
			"/report <n> <text> — report progress on goal n\n" +
			"/rest — mark today as a rest day\n" +
			"/myreport — show today's report\n" +
			"/stats — your statistics\n" +
			"/time — current challenge day")
}

// HandleTime handles the /time command.
func (h *CommonHandler) HandleTime(c tele.Context) error {
	ctx := context.Background()
	settings := h.game.Settings(ctx)
	day := h.game.CurrentDay(ctx)
	override := ""
	if _, ok := settings.CurrentDay(); ok {
		override = " (manual override)"
	}
	return c.Send(fmt.Sprintf("🕐 Day %d of %d%s", day, model.TotalDays, override))
}

// HandleStats handles the /stats command.
func (h *CommonHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	stats, err := h.game.Stats(ctx, sender.ID)
	if err == service.ErrNotRegistered {
		return c.Reply("You are not registered yet. Use /register to join.")
	}
	if err != nil {
		return c.Reply("❌ Failed to load statistics")
	}
	return c.Send(fmt.Sprintf(
		"📊 Your statistics\n\n"+
			"Name: %s\nStatus: %s\nDay: %d/%d\n"+
			"Goals set: %d/%d\nReports: %d\nRest days: %d",
		stats.GameName, stats.Status, stats.CurrentDay, model.TotalDays,
		stats.GoalsSet, model.NumGoals, stats.TotalReports, stats.RestDays))
}
