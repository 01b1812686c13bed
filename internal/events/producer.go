package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	VerificationStatusKind string = "careerlink.portal.verification.status_changed"
	ApplicationStatusKind  string = "careerlink.portal.application.status_changed"
	defaultTopic           string = "careerlink.portal.status"
	eventSource            string = "careerlink.portal.engine"
)

var ErrProducerClosed = errors.New("event producer is closed")

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with a buffer, so callers are not
// blocked while the writer delivers.
type EventProducer struct {
	buffer    *buffer
	wakeCh    chan struct{}
	doneCh    chan struct{}
	stoppedCh chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	writer    Writer
	topic     string
	onFailure func(kind string, err error)
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:    newBuffer(0),
		wakeCh:    make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		writer:    w,
		topic:     defaultTopic,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Write queues body as an event of the given kind. It fails only when the
// event cannot be queued; delivery errors are logged by the producer.
func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	return ep.write(kind, "", body)
}

func (ep *EventProducer) WriteStatusChanged(ctx context.Context, ev StatusChanged) error {
	kind := VerificationStatusKind
	if ev.RecordType == "application" {
		kind = ApplicationStatusKind
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ep.write(kind, ev.RecordID.String(), bytes.NewReader(data))
}

func (ep *EventProducer) write(kind, subject string, body io.Reader) error {
	if ep.closed.Load() {
		return ErrProducerClosed
	}

	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	if err := ep.buffer.PushBack(&message{Kind: kind, Subject: subject, Data: d}); err != nil {
		return err
	}

	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close delivers the pending events and closes the writer.
func (ep *EventProducer) Close() error {
	var err error
	ep.closeOnce.Do(func() {
		ep.closed.Store(true)
		close(ep.doneCh)

		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(closeCtx)
		g.Go(func() error {
			select {
			case <-ep.stoppedCh:
			case <-ctx.Done():
				zap.S().Named("event_producer").Warnw("pending events dropped", "count", ep.buffer.Size())
			}
			return ep.writer.Close(ctx)
		})
		if err = g.Wait(); err != nil {
			zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
			return
		}
		zap.S().Named("event_producer").Info("event producer closed")
	})
	return err
}

func (ep *EventProducer) run() {
	defer close(ep.stoppedCh)
	for {
		msg := ep.buffer.Pop()
		if msg != nil {
			ep.send(msg)
			continue
		}

		select {
		case <-ep.wakeCh:
		case <-ep.doneCh:
			for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
				ep.send(msg)
			}
			return
		}
	}
}

func (ep *EventProducer) send(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(eventSource)
	e.SetType(msg.Kind)
	e.SetTime(time.Now())
	if msg.Subject != "" {
		e.SetSubject(msg.Subject)
	}
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		zap.S().Named("event_producer").Errorw("failed to send event", "error", err, "type", msg.Kind, "subject", msg.Subject)
		if ep.onFailure != nil {
			ep.onFailure(msg.Kind, err)
		}
	}
}
