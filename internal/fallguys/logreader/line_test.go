package logreader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogLine(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
		tod   time.Duration
	}{
		{
			name:  "timestamped line",
			text:  "10:42:07.153: [StateMatchmaking] Begin matchmaking solo",
			valid: true,
			tod:   10*time.Hour + 42*time.Minute + 7*time.Second + 153*time.Millisecond,
		},
		{
			name:  "midnight",
			text:  "00:00:00.000: something",
			valid: true,
			tod:   0,
		},
		{
			name:  "last millisecond of the day",
			text:  "23:59:59.999: something",
			valid: true,
			tod:   24*time.Hour - time.Millisecond,
		},
		{name: "no timestamp", text: "> Position: 3", valid: false},
		{name: "empty", text: "", valid: false},
		{name: "missing third colon", text: "10:42:07.153 no colon after stamp", valid: false},
		{name: "stamp without colon, colons later in text", text: "00:00:01.000 [GlobalGameStateClient].PreStart called at 2024-01-01 10:00:00  UTC", valid: false},
		{name: "letters in stamp", text: "1a:42:07.153: bad", valid: false},
		{name: "hour out of range", text: "25:00:00.000: bad", valid: false},
		{name: "short", text: "10:42", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := NewLogLine(tt.text)
			assert.Equal(t, tt.valid, line.IsValid())
			assert.Equal(t, tt.text, line.Text)
			if tt.valid {
				assert.Equal(t, tt.tod, line.Time)
			}
		})
	}
}

func TestLogLine_TimeRoundTrip(t *testing.T) {
	for _, stamp := range []string{"00:00:01.000", "09:05:03.007", "12:30:45.500", "23:59:59.999"} {
		line := NewLogLine(stamp + ": text")
		require.True(t, line.IsValid(), stamp)

		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(line.Time).Format("15:04:05.000")
		assert.Equal(t, stamp, clock)
	}
}

func TestLogLine_Find(t *testing.T) {
	line := NewLogLine("10:00:00.000: [GameSession] Changing state from Playing to GameOver, playing again")

	assert.Equal(t, 14, line.Find("[gamesession]"))
	assert.Equal(t, -1, line.Find("Countdown"))
	assert.Equal(t, 69, line.FindLast("playing"))
	assert.Equal(t, 48, line.FindFrom("playing", 40))
	assert.Equal(t, 69, line.FindFrom("playing", 50))
	assert.Equal(t, -1, line.FindFrom("[GameSession]", 20))
	assert.Equal(t, 48, line.FindLastFrom("playing", 63))
	assert.Equal(t, -1, line.FindLastFrom("GameOver", 10))
}

func TestLogLine_Retrieve(t *testing.T) {
	line := NewLogLine("10:00:00.000: RTT: 42ms, Client address: 1.2.3.4")

	t.Run("between markers", func(t *testing.T) {
		assert.Equal(t, "42", line.Retrieve("rtt: ", "ms"))
	})

	t.Run("begin only returns rest of line", func(t *testing.T) {
		assert.Equal(t, "1.2.3.4", line.Retrieve("Client address: ", ""))
	})

	t.Run("missing begin", func(t *testing.T) {
		assert.Equal(t, "", line.Retrieve("Ping: ", "ms"))
	})

	t.Run("missing end", func(t *testing.T) {
		assert.Equal(t, "", line.Retrieve("RTT: ", "seconds"))
	})

	t.Run("end searched after begin", func(t *testing.T) {
		l := NewLogLine("10:00:00.000: ms before RTT: 7ms")
		assert.Equal(t, "7", l.Retrieve("RTT: ", "ms"))
	})
}

func TestLogLine_RetrieveLast(t *testing.T) {
	line := NewLogLine("10:00:00.000: [StateGameLoading] 57 players in system.")

	t.Run("between preceding end and begin", func(t *testing.T) {
		assert.Equal(t, "57", line.RetrieveLast(" players in system.", " "))
	})

	t.Run("begin only returns start of line", func(t *testing.T) {
		assert.Equal(t, "10:00:00.000: [StateGameLoading] 57", line.RetrieveLast(" players in system.", ""))
	})

	t.Run("missing markers", func(t *testing.T) {
		assert.Equal(t, "", line.RetrieveLast(" spectators.", " "))
		assert.Equal(t, "", line.RetrieveLast(" players in system.", "#"))
	})
}
