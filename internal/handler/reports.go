package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/service"
)

// ReportsHandler handles daily report commands.
type ReportsHandler struct {
	game *service.GameService
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(game *service.GameService) *ReportsHandler {
	return &ReportsHandler{game: game}
}

// HandleReport handles the /report command.
// Usage: /report <goal number> <progress text>
func (h *ReportsHandler) HandleReport(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	parts := strings.SplitN(strings.TrimSpace(c.Message().Payload), " ", 2)
	if len(parts) < 2 {
		return c.Reply(
			"Usage: /report <goal number> <progress text>\n" +
				"Example: /report 3 ran 5km this morning\n" +
				"Or mark a rest day with /rest")
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return c.Reply("The first argument must be a goal number (1-10)")
	}

	day, err := h.game.SubmitReport(ctx, sender.ID, map[int]string{n: parts[1]}, false)
	if err == service.ErrNotRegistered {
		return c.Reply("You are not registered yet. Use /register to join.")
	}
	if err != nil {
		return c.Reply("❌ Failed to save the report, please try again later")
	}
	return c.Reply(fmt.Sprintf("✅ Progress on goal %d recorded for day %d", n, day))
}

// HandleRest handles the /rest command, marking today as a rest day.
func (h *ReportsHandler) HandleRest(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	day, err := h.game.SubmitReport(ctx, sender.ID, nil, true)
	if err == service.ErrNotRegistered {
		return c.Reply("You are not registered yet. Use /register to join.")
	}
	if err != nil {
		return c.Reply("❌ Failed to save the report, please try again later")
	}
	return c.Reply(fmt.Sprintf("😴 Day %d marked as a rest day", day))
}

// HandleMyReport handles the /myreport command, showing today's report.
func (h *ReportsHandler) HandleMyReport(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	data := h.game.Data(ctx)
	if !data.IsRegistered(sender.ID) {
		return c.Reply("You are not registered yet. Use /register to join.")
	}
	day := h.game.CurrentDay(ctx)
	r := data.Report(sender.ID, day)
	if r == nil {
		return c.Send(fmt.Sprintf("No report for day %d yet. Use /report or /rest.", day))
	}
	if r.RestDay {
		return c.Send(fmt.Sprintf("😴 Day %d is a rest day", day))
	}

	goals := data.UserGoals(sender.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Report for day %d:\n\n", day)
	for i, text := range r.Progress {
		if strings.TrimSpace(text) == "" {
			continue
		}
		goal := goals[i]
		if strings.TrimSpace(goal) == "" {
			goal = fmt.Sprintf("goal %d", i+1)
		}
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, goal, text)
	}
	return c.Send(b.String())
}
