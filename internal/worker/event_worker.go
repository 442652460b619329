package worker

import (
	"github.com/spec-kit/support-console/internal/events"
)

// EventRouter subscribes view-model handlers to inbound realtime events.
type EventRouter interface {
	RegisterHandlers(dispatcher events.Dispatcher)
}

// StartEventWorker registers inbound event handlers and the optional Kafka mirror.
func StartEventWorker(dispatcher events.Dispatcher, router EventRouter, mirror *events.KafkaMirror) {
	if dispatcher == nil {
		return
	}
	if router != nil {
		router.RegisterHandlers(dispatcher)
	}
	mirror.Attach(dispatcher)
}
