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

// GoalsHandler handles goal viewing and editing commands.
type GoalsHandler struct {
	game *service.GameService
}

// NewGoalsHandler creates a new GoalsHandler.
func NewGoalsHandler(game *service.GameService) *GoalsHandler {
	return &GoalsHandler{game: game}
}

// HandleGoals handles the /goals command.
func (h *GoalsHandler) HandleGoals(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !h.game.IsRegistered(ctx, sender.ID) {
		return c.Reply("You are not registered yet. Use /register to join.")
	}

	goals := h.game.Goals(ctx, sender.ID)
	var b strings.Builder
	b.WriteString("🎯 Your goals:\n\n")
	for i, g := range goals {
		if strings.TrimSpace(g) == "" {
			g = "—"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}
	b.WriteString("\nEdit with /setgoal <n> <text>")
	return c.Send(b.String())
}

// HandleSetGoal handles the /setgoal command.
// Usage: /setgoal <n> <goal text>
func (h *GoalsHandler) HandleSetGoal(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	parts := strings.SplitN(strings.TrimSpace(c.Message().Payload), " ", 2)
	if len(parts) < 2 {
		return c.Reply("Usage: /setgoal <number 1-10> <goal text>")
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return c.Reply("Usage: /setgoal <number 1-10> <goal text>")
	}

	switch err := h.game.SetGoal(ctx, sender.ID, n, parts[1]); err {
	case nil:
	case service.ErrInvalidGoalNum:
		return c.Reply(fmt.Sprintf("Goal number must be between 1 and %d", model.NumGoals))
	case service.ErrNotRegistered:
		return c.Reply("You are not registered yet. Use /register to join.")
	default:
		return c.Reply("❌ Failed to save the goal, please try again later")
	}
	return c.Reply(fmt.Sprintf("✅ Goal %d saved", n))
}
