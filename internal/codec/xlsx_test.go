package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goal-challenge-bot/internal/model"
)

func sampleDataset() *model.Dataset {
	d := model.NewDataset()
	d.Participants = []model.Participant{
		{
			UserID:         100,
			Username:       "alice",
			FullName:       "Alice A",
			GameName:       "Runner",
			RegisteredDate: "2025-11-05",
			Status:         model.StatusActive,
			Goals:          []string{"run 5k", "read daily"},
		},
		{
			UserID:   200,
			Username: "bob",
			GameName: "Climber",
			Status:   model.StatusRemoved,
		},
	}
	d.Reports = []model.Report{
		{UserID: 100, Day: 1, Date: "2025-11-05", Progress: []string{"done", "", "skipped"}},
		{UserID: 100, Day: 2, Date: "2025-11-06", RestDay: true},
	}
	d.Settings = model.Settings{
		"chat_id":       "-100123",
		"reminder_time": "18:00",
	}
	return d
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleDataset()
	data, err := Encode(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded := Decode(data)

	require.Len(t, decoded.Participants, 2)
	p := decoded.Participant(100)
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "Alice A", p.FullName)
	assert.Equal(t, "Runner", p.GameName)
	assert.Equal(t, "2025-11-05", p.RegisteredDate)
	assert.Equal(t, model.StatusActive, p.Status)

	// Goals normalize to exactly NumGoals entries.
	require.Len(t, p.Goals, model.NumGoals)
	assert.Equal(t, "run 5k", p.Goals[0])
	assert.Equal(t, "read daily", p.Goals[1])
	assert.Equal(t, "", p.Goals[9])

	require.Len(t, decoded.Reports, 2)
	r := decoded.Report(100, 1)
	require.NotNil(t, r)
	require.Len(t, r.Progress, model.NumGoals)
	assert.Equal(t, "done", r.Progress[0])
	assert.Equal(t, "skipped", r.Progress[2])
	assert.False(t, r.RestDay)

	rest := decoded.Report(100, 2)
	require.NotNil(t, rest)
	assert.True(t, rest.RestDay)

	assert.Equal(t, "-100123", decoded.Settings["chat_id"])
	assert.Equal(t, "18:00", decoded.Settings["reminder_time"])
}

func TestEncodeDecodeEmptyDataset(t *testing.T) {
	data, err := Encode(model.NewDataset())
	require.NoError(t, err)

	decoded := Decode(data)
	assert.Empty(t, decoded.Participants)
	assert.Empty(t, decoded.Reports)
	assert.Empty(t, decoded.Settings)
}

func TestDecodeMalformedBytes(t *testing.T) {
	decoded := Decode([]byte("this is not a spreadsheet"))
	require.NotNil(t, decoded)
	assert.Empty(t, decoded.Participants)
	assert.Empty(t, decoded.Reports)
	assert.NotNil(t, decoded.Settings)
}

func TestDecodeNilBytes(t *testing.T) {
	decoded := Decode(nil)
	require.NotNil(t, decoded)
	assert.Empty(t, decoded.Participants)
}

func TestDecodeTruncatesLongGoalLists(t *testing.T) {
	d := model.NewDataset()
	goals := make([]string, 15)
	for i := range goals {
		goals[i] = "extra"
	}
	d.Participants = []model.Participant{{UserID: 1, Goals: goals}}

	data, err := Encode(d)
	require.NoError(t, err)

	decoded := Decode(data)
	require.Len(t, decoded.Participants, 1)
	assert.Len(t, decoded.Participants[0].Goals, model.NumGoals)
}
