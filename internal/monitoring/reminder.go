package monitoring

import (
	"fmt"
	"time"

	"github.com/pvillarroel/timetracker-be/internal/services"
	ws "github.com/pvillarroel/timetracker-be/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Reminder periodically scans for timers that have been running longer than
// a configured threshold and nudges their owners. A forgotten timer keeps
// accumulating duration and cost until stopped, so surfacing it early is the
// only mitigation the engine offers.
type Reminder struct {
	entrySvc   services.TimeEntryServiceProvider
	eventSvc   services.EventServiceProvider
	hub        *ws.Hub
	schedule   cron.Schedule
	maxRunning time.Duration
	nextRun    time.Time
	ticker     *time.Ticker
	done       chan bool

	// Entries already nudged, so a slow user is not spammed every firing.
	notified map[string]bool
}

// NewReminder creates a reminder job firing on the given standard cron spec.
func NewReminder(entrySvc services.TimeEntryServiceProvider, eventSvc services.EventServiceProvider, hub *ws.Hub, cronSpec string, maxRunning time.Duration) (*Reminder, error) {
	schedule, err := cron.ParseStandard(cronSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder cron expression %q: %w", cronSpec, err)
	}
	return &Reminder{
		entrySvc:   entrySvc,
		eventSvc:   eventSvc,
		hub:        hub,
		schedule:   schedule,
		maxRunning: maxRunning,
		nextRun:    schedule.Next(time.Now()),
		done:       make(chan bool),
		notified:   make(map[string]bool),
	}, nil
}

// Run starts the reminder's ticking loop.
func (r *Reminder) Run() {
	log.Info().Dur("max_running", r.maxRunning).Msg("Starting runaway-timer reminder")
	r.ticker = time.NewTicker(1 * time.Minute)
	defer r.ticker.Stop()

	for {
		select {
		case <-r.done:
			log.Info().Msg("Stopping runaway-timer reminder")
			return
		case <-r.ticker.C:
			now := time.Now()
			if now.After(r.nextRun) {
				r.scan(now)
				r.nextRun = r.schedule.Next(now)
			}
		}
	}
}

// Stop halts the reminder loop.
func (r *Reminder) Stop() {
	r.done <- true
}

// scan finds running entries older than the threshold and nudges each owner
// once.
func (r *Reminder) scan(now time.Time) {
	cutoff := now.Add(-r.maxRunning)
	entries, err := r.entrySvc.GetRunningOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Reminder: failed to scan for running entries")
		return
	}

	current := make(map[string]bool, len(entries))
	for _, entry := range entries {
		current[entry.ID] = true
		if r.notified[entry.ID] {
			continue
		}
		r.notified[entry.ID] = true

		running := now.Sub(entry.StartTime).Round(time.Minute)
		msg := fmt.Sprintf("Timer on entry %s has been running for %s.", entry.ID, running)
		r.eventSvc.CreateEvent("reminder.sent", "warn", msg, &entry.UserID)

		if r.hub != nil {
			payload, err := ws.NewTimerMessage("time_entry.reminder", entry)
			if err != nil {
				log.Error().Err(err).Msg("Reminder: failed to encode nudge")
				continue
			}
			r.hub.BroadcastTo(entry.UserID, payload)
		}
	}

	// Forget entries that were stopped or deleted since the last scan.
	for id := range r.notified {
		if !current[id] {
			delete(r.notified, id)
		}
	}
}
