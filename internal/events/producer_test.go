package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			err := kp.Write(context.TODO(), "kind1", bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())
			err = kp.Write(context.TODO(), "kind2", bytes.NewReader([]byte("msg2")))
			Expect(err).To(BeNil())

			Eventually(w.Len).WithTimeout(time.Second).Should(Equal(2))
			Expect(w.Events()[0].Type()).To(Equal("kind1"))
			Expect(w.Events()[1].Type()).To(Equal("kind2"))

			Expect(kp.Close()).To(Succeed())
		})

		It("encodes status changes", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("portal"))

			id := uuid.New()
			err := kp.WriteStatusChanged(context.TODO(), StatusChanged{
				RecordType: "application",
				RecordID:   id,
				OldStatus:  "applied",
				NewStatus:  "reviewed",
				OccurredAt: time.Now(),
			})
			Expect(err).To(BeNil())
			Expect(kp.Close()).To(Succeed())

			Expect(w.Len()).To(Equal(1))
			e := w.Events()[0]
			Expect(e.Type()).To(Equal(ApplicationStatusKind))
			Expect(e.Subject()).To(Equal(id.String()))
			Expect(w.Topics()[0]).To(Equal("portal"))

			var body StatusChanged
			Expect(json.Unmarshal(e.Data(), &body)).To(Succeed())
			Expect(body.NewStatus).To(Equal("reviewed"))
		})

		It("refuses events once closed", func() {
			kp := NewEventProducer(newTestWriter())
			Expect(kp.Close()).To(Succeed())

			err := kp.Write(context.TODO(), "kind", bytes.NewReader(nil))
			Expect(errors.Is(err, ErrProducerClosed)).To(BeTrue())
		})

		It("reports delivery failures", func() {
			w := newTestWriter()
			w.err = errors.New("broker down")
			failures := make(chan string, 1)
			kp := NewEventProducer(w, WithFailureHook(func(kind string, _ error) { failures <- kind }))

			Expect(kp.Write(context.TODO(), "kind", bytes.NewReader(nil))).To(Succeed())
			Eventually(failures).Should(Receive(Equal("kind")))
			Expect(kp.Close()).To(Succeed())
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	messages []cloudevents.Event
	topics   []string
	err      error
}

func newTestWriter() *testwriter {
	return &testwriter{messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	if t.err != nil {
		return t.err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.messages)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]cloudevents.Event{}, t.messages...)
}

func (t *testwriter) Topics() []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]string{}, t.topics...)
}
