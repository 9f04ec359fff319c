package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

// publisher turns tailer and parser callbacks into events and keeps the
// show state they imply.
type publisher struct {
	dispatcher *events.EventDispatcher
	ctx        context.Context

	mu            sync.Mutex
	sessionDate   time.Time
	inShow        bool
	endedShow     bool
	lastPing      int
	currentRounds int
}

func newPublisher(dispatcher *events.EventDispatcher) *publisher {
	return &publisher{dispatcher: dispatcher, ctx: context.Background()}
}

func (p *publisher) dispatch(eventType string, data any) {
	p.dispatcher.Dispatch(events.NewTypedEvent(eventType, data, p.ctx))
}

func (p *publisher) fill(status *Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status.SessionDate = p.sessionDate
	status.InShow = p.inShow
	status.EndedShow = p.endedShow
	status.LastPing = p.lastPing
	status.CurrentRounds = p.currentRounds
}

func (p *publisher) SessionDate(date time.Time) {
	p.mu.Lock()
	p.sessionDate = date
	p.mu.Unlock()

	p.dispatch(events.TypeSessionDate, events.SessionDateEvent{Date: date})
}

func (p *publisher) RoundsCompleted(completed []rounds.RoundInfo) {
	p.dispatch(events.TypeRoundsCompleted, events.RoundsCompletedEvent{Rounds: completed})
}

func (p *publisher) RoundsCurrent(current []rounds.RoundInfo) {
	p.mu.Lock()
	p.currentRounds = len(current)
	p.mu.Unlock()

	p.dispatch(events.TypeRoundsCurrent, events.RoundsCurrentEvent{Rounds: current})
}

func (p *publisher) PingUpdated(ping int) {
	p.mu.Lock()
	p.lastPing = ping
	p.mu.Unlock()

	p.dispatch(events.TypePingUpdated, events.PingEvent{Ping: ping})
}

func (p *publisher) ShowChanged(change rounds.ShowChange) {
	var (
		eventType string
		data      events.ShowStateEvent
	)

	p.mu.Lock()
	switch change {
	case rounds.ShowStarted:
		p.inShow, p.endedShow = true, false
		eventType = events.TypeShowStarted
		data = events.ShowStateEvent{InShow: true, Reason: "matchmaking"}
	case rounds.ShowLeft:
		p.inShow = false
		eventType = events.TypeShowEnded
		data = events.ShowStateEvent{Reason: "main_menu"}
	case rounds.ShowEnded:
		p.inShow, p.endedShow = false, true
		eventType = events.TypeShowEnded
		data = events.ShowStateEvent{Ended: true, Reason: "summary"}
	}
	p.mu.Unlock()

	if eventType != "" {
		p.dispatch(eventType, data)
	}
}

func (p *publisher) publishError(source string, err error) {
	p.dispatch(events.TypeWatcherError, events.WatcherErrorEvent{Source: source, Error: err.Error()})
}

// tailerEvents is the tailer's view of the publisher.
type tailerEvents struct{ *publisher }

func (e tailerEvents) Error(err error) { e.publishError("tailer", err) }

// parserEvents is the parser's view of the publisher.
type parserEvents struct{ *publisher }

func (e parserEvents) Error(err error) { e.publishError("parser", err) }
