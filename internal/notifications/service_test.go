package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"audioextract/internal/config"
	"audioextract/internal/destination"
	"audioextract/internal/extract"
	"audioextract/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

type ntfyRecorder struct {
	mu       sync.Mutex
	requests []captured
	status   int
}

func (r *ntfyRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.Method)
		}
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.requests = append(r.requests, captured{
			title:    req.Header.Get("Title"),
			body:     string(body),
			tags:     req.Header.Get("Tags"),
			priority: req.Header.Get("Priority"),
		})
		status := r.status
		r.mu.Unlock()
		if status != 0 {
			http.Error(w, "nope", status)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (r *ntfyRecorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.requests...)
}

func newService(t *testing.T, rec *ntfyRecorder) notifications.Service {
	t.Helper()
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/audio"
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service")
	}
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:           "progress",
			event:          notifications.EventProgress,
			payload:        notifications.Payload{"message": "Extracting 1/2: a.m4a", "percent": 25},
			expectTitle:    "Audio extraction",
			expectBody:     "Extracting 1/2: a.m4a (25%)",
			expectTags:     "audioextract,progress",
			expectPriority: "low",
		},
		{
			name:        "file completed",
			event:       notifications.EventFileCompleted,
			payload:     notifications.Payload{"current": 2, "total": 3, "output": "b.opus", "input": "b.mkv"},
			expectTitle: "Audio extraction - File done",
			expectBody:  "Extracted 2/3: b.opus\nFrom: b.mkv",
			expectTags:  "audioextract,file,completed",
		},
		{
			name:           "file failed",
			event:          notifications.EventFileFailed,
			payload:        notifications.Payload{"message": "Error on file 1/1 (x.mkv): no audio track"},
			expectTitle:    "Audio extraction - Error",
			expectBody:     "Error on file 1/1 (x.mkv): no audio track",
			expectTags:     "audioextract,error,alert",
			expectPriority: "high",
		},
		{
			name:        "batch with errors",
			event:       notifications.EventBatchCompleted,
			payload:     notifications.Payload{"message": "Done: 2 ok, 1 failed", "failed": 1, "sessionLog": "/out/logs/x.log"},
			expectTitle: "Audio extraction - Complete (with errors)",
			expectBody:  "Done: 2 ok, 1 failed\nLog: /out/logs/x.log",
			expectTags:  "audioextract,batch,completed",
		},
		{
			name:        "batch cancelled",
			event:       notifications.EventBatchCompleted,
			payload:     notifications.Payload{"message": "Cancelled after 1 of 3 file(s): 1 ok, 0 failed", "cancelled": true},
			expectTitle: "Audio extraction - Cancelled",
			expectBody:  "Cancelled after 1 of 3 file(s): 1 ok, 0 failed",
			expectTags:  "audioextract,batch,completed",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Audio extraction - Test",
			expectBody:     "Notification system test",
			expectTags:     "audioextract,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &ntfyRecorder{}
			svc := newService(t, rec)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish failed: %v", err)
			}
			got := rec.all()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			if got[0].title != tc.expectTitle || got[0].body != tc.expectBody || got[0].tags != tc.expectTags || got[0].priority != tc.expectPriority {
				t.Fatalf("unexpected request %+v", got[0])
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	rec := &ntfyRecorder{status: http.StatusForbidden}
	svc := newService(t, rec)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestNtfyServiceRejectsUnknownEvent(t *testing.T) {
	rec := &ntfyRecorder{}
	svc := newService(t, rec)
	if err := svc.Publish(context.Background(), notifications.Event("bogus"), nil); err == nil {
		t.Fatal("expected unknown event error")
	}
	if len(rec.all()) != 0 {
		t.Fatal("unknown events must not be sent")
	}
}

func TestObserverFiltersAndThrottles(t *testing.T) {
	rec := &ntfyRecorder{}
	svc := newService(t, rec)
	obs := notifications.NewObserver(svc, notifications.Settings{Progress: true, Errors: true, Completed: true, ProgressStep: 25}, nil)

	for _, pct := range []int{0, 5, 10, 26, 30, 51} {
		obs.Observe(extract.Progress{Total: 1, Current: 1, Percent: pct, Message: "Extracting 1/1: a.m4a"})
	}
	obs.Observe(extract.Result{JobResult: extract.JobResult{Index: 0, Total: 1, OutputName: "a.m4a", DisplayName: "a.mkv", State: extract.JobSucceeded}})
	obs.Observe(extract.Error{Index: 0, Total: 1, Message: "boom"})
	obs.Observe(extract.Done{Message: "Done: 1 ok, 0 failed", OK: 1, LogRef: destination.Ref{URI: "file:///out/x.log"}})
	obs.Close()

	var titles []string
	for _, r := range rec.all() {
		titles = append(titles, r.title)
	}
	want := []string{
		"Audio extraction",
		"Audio extraction",
		"Audio extraction",
		"Audio extraction - File done",
		"Audio extraction - Error",
		"Audio extraction - Complete",
	}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected notifications:\n%v", titles)
	}
}

func TestObserverRespectsToggles(t *testing.T) {
	rec := &ntfyRecorder{}
	svc := newService(t, rec)
	obs := notifications.NewObserver(svc, notifications.Settings{Errors: true}, nil)

	obs.Observe(extract.Progress{Percent: 50, Message: "x"})
	obs.Observe(extract.Result{JobResult: extract.JobResult{State: extract.JobSucceeded}})
	obs.Observe(extract.Done{Message: "Done: 1 ok, 0 failed", OK: 1})
	obs.Observe(extract.Done{Message: "Done: 0 ok, 1 failed", Failed: 1})
	obs.Close()
	obs.Observe(extract.Error{Message: "after close"})

	got := rec.all()
	if len(got) != 1 || got[0].title != "Audio extraction - Complete (with errors)" {
		t.Fatalf("unexpected notifications %+v", got)
	}
}
