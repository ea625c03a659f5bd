package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"goal-challenge-bot/internal/model"
	"goal-challenge-bot/internal/service"
)

var errNotFound = errors.New("not found")

func (s *Server) handleParticipants(c *gin.Context) {
	data := s.game.Data(c.Request.Context())
	c.JSON(http.StatusOK, data.Participants)
}

func (s *Server) handleParticipant(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	data := s.game.Data(c.Request.Context())
	p := data.Participant(userID)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleReports(c *gin.Context) {
	data := s.game.Data(c.Request.Context())
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		var out []model.Report
		for _, r := range data.Reports {
			if r.UserID == userID {
				out = append(out, r)
			}
		}
		c.JSON(http.StatusOK, out)
		return
	}
	c.JSON(http.StatusOK, data.Reports)
}

func (s *Server) handleUserStats(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	stats, err := s.game.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCurrentDay(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current_day": s.game.CurrentDay(c.Request.Context()),
		"total_days":  model.TotalDays,
	})
}

func (s *Server) handleCommunityStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.game.Community(c.Request.Context()))
}

type tokenRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (s *Server) handleGenerateToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if !s.game.IsRegistered(c.Request.Context(), req.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	token, err := s.tokens.Issue(req.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleVerifyToken(c *gin.Context) {
	userID, err := s.tokens.Validate(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user_id": userID})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.game.Settings(c.Request.Context()))
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var updates map[string]string
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	if err := s.game.UpdateSettings(c.Request.Context(), updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, s.game.Settings(c.Request.Context()))
}

func (s *Server) handleCreateParticipant(c *gin.Context) {
	var p model.Participant
	if err := c.ShouldBindJSON(&p); err != nil || p.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant payload"})
		return
	}
	err := s.game.Mutate(c.Request.Context(), false, func(d *model.Dataset) error {
		if d.IsRegistered(p.UserID) {
			return service.ErrAlreadyInGame
		}
		p.Goals = model.NormalizeGoals(p.Goals)
		if p.Status == "" {
			p.Status = model.StatusActive
		}
		d.Participants = append(d.Participants, p)
		return nil
	})
	if errors.Is(err, service.ErrAlreadyInGame) {
		c.JSON(http.StatusConflict, gin.H{"error": "participant already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save participant"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

type participantUpdate struct {
	GameName *string   `json:"game_name"`
	Status   *string   `json:"status"`
	Goals    *[]string `json:"goals"`
}

func (s *Server) handleUpdateParticipant(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	var upd participantUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant payload"})
		return
	}
	var updated model.Participant
	err := s.game.Mutate(c.Request.Context(), false, func(d *model.Dataset) error {
		p := d.Participant(userID)
		if p == nil {
			return errNotFound
		}
		if upd.GameName != nil {
			p.GameName = *upd.GameName
		}
		if upd.Status != nil {
			p.Status = *upd.Status
		}
		if upd.Goals != nil {
			p.Goals = model.NormalizeGoals(*upd.Goals)
		}
		updated = *p
		return nil
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save participant"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteParticipant(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	err := s.game.Mutate(c.Request.Context(), true, func(d *model.Dataset) error {
		for i := range d.Participants {
			if d.Participants[i].UserID == userID {
				d.Participants = append(d.Participants[:i], d.Participants[i+1:]...)
				return nil
			}
		}
		return errNotFound
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": userID})
}

type reportPayload struct {
	UserID   int64    `json:"user_id"`
	Day      int      `json:"day"`
	Date     string   `json:"date"`
	Progress []string `json:"progress"`
	RestDay  bool     `json:"rest_day"`
}

func (s *Server) handleCreateReport(c *gin.Context) {
	var req reportPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.Day < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report payload"})
		return
	}
	progress := map[int]string{}
	for i, text := range req.Progress {
		progress[i+1] = text
	}
	err := s.game.Mutate(c.Request.Context(), true, func(d *model.Dataset) error {
		if !d.IsRegistered(req.UserID) {
			return errNotFound
		}
		d.SaveReport(req.UserID, req.Day, req.Date, progress, req.RestDay)
		return nil
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save report"})
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) handleUpdateReport(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	var req reportPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report payload"})
		return
	}
	var updated model.Report
	err := s.game.Mutate(c.Request.Context(), true, func(d *model.Dataset) error {
		r := d.Report(userID, day)
		if r == nil {
			return errNotFound
		}
		if req.Progress != nil {
			r.Progress = model.NormalizeGoals(req.Progress)
		}
		if req.Date != "" {
			r.Date = req.Date
		}
		r.RestDay = req.RestDay
		updated = *r
		return nil
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save report"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	userID, ok := pathInt64(c, "user_id")
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	err := s.game.Mutate(c.Request.Context(), true, func(d *model.Dataset) error {
		for i := range d.Reports {
			if d.Reports[i].UserID == userID && d.Reports[i].Day == day {
				d.Reports = append(d.Reports[:i], d.Reports[i+1:]...)
				return nil
			}
		}
		return errNotFound
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type gameDayRequest struct {
	Day *int `json:"day"`
}

func (s *Server) handleSetGameDay(c *gin.Context) {
	var req gameDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	value := ""
	if req.Day != nil {
		value = strconv.Itoa(*req.Day)
	}
	if err := s.game.UpdateSettings(c.Request.Context(), map[string]string{model.SettingCurrentDay: value}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_day": s.game.CurrentDay(c.Request.Context())})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.game.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

func (s *Server) handleExport(c *gin.Context) {
	c.JSON(http.StatusOK, s.game.Data(c.Request.Context()))
}

func (s *Server) handleImport(c *gin.Context) {
	var data model.Dataset
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset payload"})
		return
	}
	err := s.game.Mutate(c.Request.Context(), true, func(d *model.Dataset) error {
		*d = data
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import dataset"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true})
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
