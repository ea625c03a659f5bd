package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"goal-challenge-bot/internal/service"
)

// GroupHandler reacts to group membership events.
type GroupHandler struct {
	game *service.GameService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(game *service.GameService) *GroupHandler {
	return &GroupHandler{game: game}
}

// HandleAddedToGroup remembers the chat the bot was added to so reminders
// and announcements have a destination before /set_group is run.
func (h *GroupHandler) HandleAddedToGroup(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if err := h.game.SaveChatConfig(context.Background(), chat.ID, 0); err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to save chat configuration")
		return nil
	}
	log.Info().Int64("chat_id", chat.ID).Msg("Bot added to game chat")
	return c.Send("👋 Hello! I will track the 90-day goal challenge here. Admins: run /set_group in the announcements thread.")
}
