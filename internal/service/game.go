// Package service provides business logic over the synchronized dataset.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"goal-challenge-bot/internal/clock"
	"goal-challenge-bot/internal/gamedata"
	"goal-challenge-bot/internal/model"
)

// Common errors for game operations.
var (
	ErrNotRegistered  = errors.New("user is not registered")
	ErrAlreadyInGame  = errors.New("user is already registered")
	ErrInvalidGoalNum = errors.New("goal number out of range")
)

// GameService implements participant-facing operations. Mutations follow
// read-modify-write on the full dataset, serialized by a process-wide mutex
// so interleaved handlers cannot lose each other's edits.
type GameService struct {
	mgr *gamedata.Manager
	mu  sync.Mutex
}

// NewGameService creates a new GameService instance.
func NewGameService(mgr *gamedata.Manager) *GameService {
	return &GameService{mgr: mgr}
}

// Data returns the current dataset.
func (s *GameService) Data(ctx context.Context) *model.Dataset {
	return s.mgr.GetAllData(ctx)
}

// CurrentDay returns the current challenge day.
func (s *GameService) CurrentDay(ctx context.Context) int {
	return clock.CurrentDay(s.Data(ctx).Settings)
}

// Register adds a new participant. Returns ErrAlreadyInGame for known users.
func (s *GameService) Register(ctx context.Context, userID int64, username, fullName, gameName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	if data.IsRegistered(userID) {
		return ErrAlreadyInGame
	}
	date := clock.Now(data.Settings).Format("2006-01-02")
	data.Register(userID, username, fullName, gameName, date)
	if err := s.mgr.SaveData(ctx, data, false); err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

// IsRegistered reports whether a user is a participant.
func (s *GameService) IsRegistered(ctx context.Context, userID int64) bool {
	return s.Data(ctx).IsRegistered(userID)
}

// Goals returns the user's goals, always exactly model.NumGoals entries.
func (s *GameService) Goals(ctx context.Context, userID int64) []string {
	return s.Data(ctx).UserGoals(userID)
}

// SetGoal sets one goal slot for a registered user.
func (s *GameService) SetGoal(ctx context.Context, userID int64, n int, text string) error {
	if n < 1 || n > model.NumGoals {
		return ErrInvalidGoalNum
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	if !data.IsRegistered(userID) {
		return ErrNotRegistered
	}
	data.SetUserGoal(userID, n, strings.TrimSpace(text))
	if err := s.mgr.SaveData(ctx, data, false); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

// SubmitReport records progress for the current day and returns the day
// index. Report saves are urgent: losing one matters more than write
// amplification.
func (s *GameService) SubmitReport(ctx context.Context, userID int64, progress map[int]string, restDay bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	if !data.IsRegistered(userID) {
		return 0, ErrNotRegistered
	}
	day := clock.CurrentDay(data.Settings)
	date := clock.Now(data.Settings).Format("2006-01-02")
	data.SaveReport(userID, day, date, progress, restDay)
	if err := s.mgr.SaveData(ctx, data, true); err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	return day, nil
}

// UserStats summarizes one participant's progress.
type UserStats struct {
	UserID       int64  `json:"user_id"`
	GameName     string `json:"game_name"`
	Status       string `json:"status"`
	CurrentDay   int    `json:"current_day"`
	TotalReports int    `json:"total_reports"`
	RestDays     int    `json:"rest_days"`
	GoalsSet     int    `json:"goals_set"`
}

// Stats returns the user's challenge statistics.
func (s *GameService) Stats(ctx context.Context, userID int64) (*UserStats, error) {
	data := s.Data(ctx)
	p := data.Participant(userID)
	if p == nil {
		return nil, ErrNotRegistered
	}
	stats := &UserStats{
		UserID:     userID,
		GameName:   p.GameName,
		Status:     p.Status,
		CurrentDay: clock.CurrentDay(data.Settings),
	}
	for _, g := range p.Goals {
		if strings.TrimSpace(g) != "" {
			stats.GoalsSet++
		}
	}
	for _, r := range data.Reports {
		if r.UserID != userID {
			continue
		}
		stats.TotalReports++
		if r.RestDay {
			stats.RestDays++
		}
	}
	return stats, nil
}

// CommunityStats summarizes the whole game.
type CommunityStats struct {
	CurrentDay        int `json:"current_day"`
	TotalParticipants int `json:"total_participants"`
	Active            int `json:"active"`
	Removed           int `json:"removed"`
	ReportsToday      int `json:"reports_today"`
	TotalReports      int `json:"total_reports"`
}

// Community returns aggregate statistics for the whole challenge.
func (s *GameService) Community(ctx context.Context) *CommunityStats {
	data := s.Data(ctx)
	stats := &CommunityStats{
		CurrentDay:   clock.CurrentDay(data.Settings),
		TotalReports: len(data.Reports),
	}
	stats.TotalParticipants = len(data.Participants)
	for _, p := range data.Participants {
		if p.Status == model.StatusActive {
			stats.Active++
		} else {
			stats.Removed++
		}
	}
	for _, r := range data.Reports {
		if r.Day == stats.CurrentDay {
			stats.ReportsToday++
		}
	}
	return stats
}

// MissingToday returns the active participants without a report for the
// current day.
func (s *GameService) MissingToday(ctx context.Context) ([]model.Participant, int) {
	data := s.Data(ctx)
	day := clock.CurrentDay(data.Settings)
	var missing []model.Participant
	for _, p := range data.ActiveParticipants() {
		if data.Report(p.UserID, day) == nil {
			missing = append(missing, p)
		}
	}
	return missing, day
}

// RemovalResult lists participants removed by the daily sweep.
type RemovalResult struct {
	Day         int
	NoReport    []model.Participant
	LowProgress []model.Participant
}

// Removed returns the total number of removals in the sweep.
func (r *RemovalResult) Removed() int {
	return len(r.NoReport) + len(r.LowProgress)
}

// minProgressedGoals is the daily minimum on non-rest days.
const minProgressedGoals = 2

// RemoveInactive sweeps active participants and removes those who, after
// day 1, have no report for the current day or progressed fewer than two
// goals on a non-rest day. The sweep persists urgently when anyone was
// removed.
func (s *GameService) RemoveInactive(ctx context.Context) (*RemovalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	day := clock.CurrentDay(data.Settings)
	result := &RemovalResult{Day: day}
	if day <= 1 {
		return result, nil
	}

	for _, p := range data.ActiveParticipants() {
		r := data.Report(p.UserID, day)
		if r == nil {
			data.RemoveParticipant(p.UserID)
			result.NoReport = append(result.NoReport, p)
			continue
		}
		if r.RestDay {
			continue
		}
		progressed := 0
		for _, text := range r.Progress {
			if strings.TrimSpace(text) != "" {
				progressed++
			}
		}
		if progressed < minProgressedGoals {
			data.RemoveParticipant(p.UserID)
			result.LowProgress = append(result.LowProgress, p)
		}
	}

	if result.Removed() > 0 {
		if err := s.mgr.SaveData(ctx, data, true); err != nil {
			return nil, fmt.Errorf("failed to save removals: %w", err)
		}
	}
	return result, nil
}

// Settings returns the current settings bag.
func (s *GameService) Settings(ctx context.Context) model.Settings {
	return s.Data(ctx).Settings
}

// UpdateSettings applies the given key-value updates and persists urgently.
// An empty value deletes the key.
func (s *GameService) UpdateSettings(ctx context.Context, updates map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	for k, v := range updates {
		if v == "" {
			delete(data.Settings, k)
		} else {
			data.Settings[k] = v
		}
	}
	if err := s.mgr.SaveData(ctx, data, true); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SaveChatConfig persists the game chat and thread IDs.
func (s *GameService) SaveChatConfig(ctx context.Context, chatID, threadID int64) error {
	updates := map[string]string{}
	if chatID != 0 {
		updates[model.SettingChatID] = fmt.Sprintf("%d", chatID)
	}
	if threadID != 0 {
		updates[model.SettingThreadID] = fmt.Sprintf("%d", threadID)
	}
	if len(updates) == 0 {
		return nil
	}
	return s.UpdateSettings(ctx, updates)
}

// Mutate applies fn to the current dataset under the process-wide write
// lock and persists the result. Used by the admin API for arbitrary edits.
func (s *GameService) Mutate(ctx context.Context, urgent bool, fn func(*model.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.mgr.GetAllData(ctx)
	if err := fn(data); err != nil {
		return err
	}
	if err := s.mgr.SaveData(ctx, data, urgent); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

// Refresh forces a reconciliation with the remote working copy.
func (s *GameService) Refresh(ctx context.Context) error {
	return s.mgr.RefreshFromRemote(ctx)
}
