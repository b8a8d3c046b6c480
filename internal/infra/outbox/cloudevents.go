package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	appoutbox "travelstay/internal/app/outbox"
)

const (
	cloudEventsVersion = "1.0"
	typeSuffix         = ".v1"
	// ContentType is set on every published message.
	ContentType = "application/cloudevents+json"
)

var ErrNotCloudEvent = errors.New("outbox: message is not a cloudevent")

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// EncodeCloudEvent wraps the envelope in a structured CloudEvent. The event id
// is the outbox id so consumers can dedupe redeliveries.
func EncodeCloudEvent(env *Envelope, source string) ([]byte, map[string]string, error) {
	if !json.Valid(env.Payload) {
		return nil, nil, errors.New("outbox: payload is not valid json")
	}
	evt := cloudEvent{
		SpecVersion:     cloudEventsVersion,
		ID:              env.ID,
		Type:            env.Name + typeSuffix,
		Source:          source,
		Subject:         env.Aggregate,
		Time:            env.OccurredAt,
		DataContentType: "application/json",
		TraceParent:     env.Headers["traceparent"],
		Data:            env.Payload,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": ContentType}
	for k, v := range env.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// DecodeCloudEvent turns a published message back into the event record the
// application handlers understand.
func DecodeCloudEvent(payload []byte) (appoutbox.EventRecord, error) {
	var evt cloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return appoutbox.EventRecord{}, err
	}
	if evt.SpecVersion == "" || evt.ID == "" || evt.Type == "" {
		return appoutbox.EventRecord{}, ErrNotCloudEvent
	}
	headers := map[string]string{}
	if evt.TraceParent != "" {
		headers["traceparent"] = evt.TraceParent
	}
	return appoutbox.EventRecord{
		ID:         evt.ID,
		Name:       strings.TrimSuffix(evt.Type, typeSuffix),
		Payload:    []byte(evt.Data),
		OccurredAt: evt.Time,
		Aggregate:  evt.Subject,
		Headers:    headers,
	}, nil
}

// TopicFor maps "booking.created" to "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}
