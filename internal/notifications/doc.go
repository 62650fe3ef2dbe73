// Package notifications pushes extraction events to ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// set and a no-op otherwise, so callers never branch on configuration.
// Observer adapts a Service to the extract event stream: it filters events by
// the [notifications] toggles, throttles progress, and delivers on its own
// goroutine so a slow ntfy server never stalls a batch.
package notifications
