package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"audioextract/internal/config"
	"audioextract/internal/extract"
	"audioextract/internal/logging"
)

const (
	observerQueue  = 64
	publishTimeout = 30 * time.Second
)

// Settings selects which extraction events become notifications.
type Settings struct {
	Progress  bool
	Errors    bool
	Completed bool
	// ProgressStep is the overall-percent bucket between progress notifications.
	ProgressStep float64
}

// SettingsFromConfig reads the [notifications] toggles.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		Progress:     cfg.Notifications.Progress,
		Errors:       cfg.Notifications.Errors,
		Completed:    cfg.Notifications.Completed,
		ProgressStep: 25,
	}
}

type delivery struct {
	event   Event
	payload Payload
}

// Observer forwards extract events to a Service from a background goroutine.
type Observer struct {
	svc      Service
	settings Settings
	logger   *slog.Logger
	sampler  *logging.ProgressSampler

	mu     sync.Mutex
	closed bool
	queue  chan delivery
	done   chan struct{}
}

// NewObserver starts the delivery goroutine. Call Close to flush pending notifications.
func NewObserver(svc Service, settings Settings, logger *slog.Logger) *Observer {
	if svc == nil {
		svc = noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Observer{
		svc:      svc,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "notifications"),
		sampler:  logging.NewProgressSampler(settings.ProgressStep),
		queue:    make(chan delivery, observerQueue),
		done:     make(chan struct{}),
	}
	go o.loop()
	return o
}

// Observe implements extract.Observer.
func (o *Observer) Observe(e extract.Event) {
	switch ev := e.(type) {
	case extract.Progress:
		if !o.settings.Progress || !o.sampler.ShouldLog(float64(ev.Percent), ev.Message) {
			return
		}
		o.enqueue(delivery{EventProgress, Payload{"message": ev.Message, "percent": ev.Percent}}, false)
	case extract.Error:
		if o.settings.Errors {
			o.enqueue(delivery{EventFileFailed, Payload{"message": ev.Message}}, true)
		}
	case extract.Result:
		res := ev.JobResult
		if o.settings.Completed && res.OK() {
			o.enqueue(delivery{EventFileCompleted, Payload{
				"current": res.Index + 1,
				"total":   res.Total,
				"output":  res.OutputName,
				"input":   res.DisplayName,
			}}, true)
		}
	case extract.Done:
		o.sampler.Reset()
		if o.settings.Completed || (o.settings.Errors && ev.Failed > 0) {
			o.enqueue(delivery{EventBatchCompleted, Payload{
				"message":    ev.Message,
				"failed":     ev.Failed,
				"cancelled":  ev.Cancelled,
				"sessionLog": ev.LogRef.Path(),
			}}, true)
		}
	}
}

func (o *Observer) enqueue(d delivery, wait bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if wait {
		o.queue <- d
		return
	}
	select {
	case o.queue <- d:
	default:
	}
}

func (o *Observer) loop() {
	defer close(o.done)
	for d := range o.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := o.svc.Publish(ctx, d.event, d.payload)
		cancel()
		if err != nil {
			logging.WarnWithContext(o.logger, "notification failed", "notification_failed",
				logging.String("event", string(d.event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}
}

// Close stops accepting events and waits for queued notifications to be sent.
func (o *Observer) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	<-o.done
}
