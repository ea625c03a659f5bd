package model

import "strconv"

// Settings keys consumed by the bot, the scheduler and the API.
const (
	SettingChatID          = "chat_id"
	SettingThreadID        = "thread_id"
	SettingReminderTime    = "reminder_time"
	SettingRemovalTime     = "removal_time"
	SettingCurrentDay      = "current_day"
	SettingTimeOffsetHours = "time_offset_hours"
)

// Settings is a flat key-value bag stored alongside participants and
// reports. All values are optional; absence means "use default".
type Settings map[string]string

// Int returns the integer value for key, or (0, false) when absent or not
// numeric.
func (s Settings) Int(key string) (int64, bool) {
	raw, ok := s[key]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetInt stores an integer value under key.
func (s Settings) SetInt(key string, v int64) {
	s[key] = strconv.FormatInt(v, 10)
}

// ChatID returns the configured game chat ID.
func (s Settings) ChatID() (int64, bool) { return s.Int(SettingChatID) }

// ThreadID returns the configured forum thread ID for bot announcements.
func (s Settings) ThreadID() (int64, bool) { return s.Int(SettingThreadID) }

// CurrentDay returns the manual current-day override.
func (s Settings) CurrentDay() (int, bool) {
	v, ok := s.Int(SettingCurrentDay)
	return int(v), ok
}

// TimeOffsetHours returns the configured wall-clock offset in hours.
func (s Settings) TimeOffsetHours() int {
	v, _ := s.Int(SettingTimeOffsetHours)
	return int(v)
}

// ReminderTime returns the HH:MM reminder time, or def when unset.
func (s Settings) ReminderTime(def string) string {
	if v, ok := s[SettingReminderTime]; ok && v != "" {
		return v
	}
	return def
}

// RemovalTime returns the HH:MM removal-sweep time, or def when unset.
func (s Settings) RemovalTime(def string) string {
	if v, ok := s[SettingRemovalTime]; ok && v != "" {
		return v
	}
	return def
}
