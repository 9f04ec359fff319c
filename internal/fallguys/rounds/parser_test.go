package rounds

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
	"github.com/ramonehamilton/FallGuys-Companion/internal/metrics"
)

type recordingHandler struct {
	mu        sync.Mutex
	completed [][]RoundInfo
	current   [][]RoundInfo
	pings     []int
	shows     []ShowChange
	errs      []error
}

func (h *recordingHandler) RoundsCompleted(rounds []RoundInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, rounds)
}

func (h *recordingHandler) RoundsCurrent(rounds []RoundInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = append(h.current, rounds)
}

func (h *recordingHandler) PingUpdated(ping int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pings = append(h.pings, ping)
}

func (h *recordingHandler) ShowChanged(change ShowChange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shows = append(h.shows, change)
}

func (h *recordingHandler) Error(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) currentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.current)
}

func newTestParser(t *testing.T) (*Parser, *logreader.LineBuffer, *recordingHandler) {
	t.Helper()
	buffer := logreader.NewLineBuffer()
	handler := &recordingHandler{}
	parser, err := NewParser(&ParserConfig{
		Buffer:   buffer,
		Interval: 10 * time.Millisecond,
		Handler:  handler,
		Metrics:  metrics.NewCollector(),
	})
	require.NoError(t, err)
	return parser, buffer, handler
}

func TestNewParser(t *testing.T) {
	_, err := NewParser(nil)
	assert.Error(t, err)

	_, err = NewParser(&ParserConfig{})
	assert.Error(t, err)

	parser, err := NewParser(&ParserConfig{Buffer: logreader.NewLineBuffer()})
	require.NoError(t, err)
	assert.NotPanics(t, parser.Tick)
}

func TestParser_TickPublishesSnapshotEveryTick(t *testing.T) {
	parser, _, handler := newTestParser(t)

	parser.Tick()
	parser.Tick()

	require.Len(t, handler.current, 2)
	assert.Empty(t, handler.current[0])
	assert.Empty(t, handler.completed)
	assert.Empty(t, handler.pings)
}

func TestParser_FullShow(t *testing.T) {
	parser, buffer, handler := newTestParser(t)

	buffer.Append(
		logLine(t, "10:00:00", "[StateMatchmaking] Begin matchmaking solo"),
		logLine(t, "10:00:01", "NetworkGameOptions: durationInSeconds=300 isFinalRound=True"),
		logLine(t, "10:00:05", "[StateGameLoading] Finished loading game level, assumed to be Tiptoe_event_only"),
		logLine(t, "10:00:06", "[ClientGameManager] Handling bootstrap for local player FallGuy [7]"),
		logLine(t, "10:00:07", "Client address: 1.2.3.4, RTT: 38ms"),
	)
	parser.Tick()

	require.Len(t, handler.current, 1)
	require.Len(t, handler.current[0], 1)
	assert.Equal(t, "Tiptoe", handler.current[0][0].Name)
	assert.Equal(t, 300, handler.current[0][0].GameDuration)
	assert.Equal(t, []int{38}, handler.pings)
	assert.Equal(t, []ShowChange{ShowStarted}, handler.shows)

	buffer.Append(
		logLine(t, "10:00:20", "[GameSession] Changing state from Countdown to Playing"),
		logLine(t, "10:03:00", "[ClientGameManager] Handling unspawn for player FallGuy [7]"),
		logLine(t, "10:03:01", "[ClientGameSession] NumPlayersAchievingObjective=1"),
		logLine(t, "10:03:02", "[GameSession] Changing state from Playing to GameOver"),
		logLine(t, "10:04:00", summary("== [Episode Summary] ==", "[Round 1] Tiptoe", "> Qualified: T")),
	)
	parser.Tick()

	assert.Equal(t, []int{38}, handler.pings, "no ping read this tick")
	assert.Equal(t, []ShowChange{ShowStarted, ShowEnded}, handler.shows)
	require.Len(t, handler.completed, 1)
	require.Len(t, handler.completed[0], 1)

	r := handler.completed[0][0]
	assert.True(t, r.Crown)
	require.NotNil(t, r.Position)
	assert.Equal(t, 1, *r.Position)
	require.NotNil(t, r.Finish)
	assert.Equal(t, at("10:03:00"), *r.Finish)
	assert.Equal(t, at("10:00:20"), r.Start)
	assert.Equal(t, at("10:03:02"), r.End)
}

func TestParser_MalformedLineDoesNotDropTick(t *testing.T) {
	parser, buffer, handler := newTestParser(t)

	buffer.Append(
		logLine(t, "10:00:01", "NetworkGameOptions: durationInSeconds=soon isFinalRound=True"),
		logLine(t, "10:00:05", "[StateGameLoading] Finished loading game level, assumed to be round_door_dash"),
	)
	parser.Tick()

	require.Len(t, handler.errs, 1)
	assert.ErrorIs(t, handler.errs[0], ErrMalformedNumber)
	require.Len(t, handler.current, 1)
	assert.Len(t, handler.current[0], 1)
}

func TestParser_PublishedRoundsAreCopies(t *testing.T) {
	parser, buffer, handler := newTestParser(t)

	buffer.Append(logLine(t, "10:00:05", "[StateGameLoading] Finished loading game level, assumed to be round_door_dash"))
	parser.Tick()
	handler.current[0][0].Name = "changed"

	assert.Equal(t, "round_door_dash", parser.Snapshot()[0].Name)
}

func TestParser_Reset(t *testing.T) {
	parser, buffer, _ := newTestParser(t)

	buffer.Append(logLine(t, "10:00:05", "[StateGameLoading] Finished loading game level, assumed to be round_door_dash"))
	parser.Tick()
	require.Len(t, parser.Snapshot(), 1)

	parser.Reset()
	assert.Empty(t, parser.Snapshot())
}

func TestParser_Run(t *testing.T) {
	parser, buffer, handler := newTestParser(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		parser.Run(ctx)
	}()

	buffer.Append(logLine(t, "10:00:05", "[StateGameLoading] Finished loading game level, assumed to be round_door_dash"))
	require.Eventually(t, func() bool {
		return len(parser.Snapshot()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return handler.currentCount() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("parser did not stop")
	}
	assert.Equal(t, 0, buffer.Len())
}
