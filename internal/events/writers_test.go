package events

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

func testEvent() cloudevents.Event {
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource(eventSource)
	e.SetType(VerificationStatusKind)
	e.SetSubject("record-1")
	e.SetTime(time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC))
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), []byte(`{"new_status":"approved"}`))
	return e
}

var _ = Describe("writers", func() {
	Context("redis stream", func() {
		var (
			mr     *miniredis.Miniredis
			client *redis.Client
		)

		BeforeEach(func() {
			var err error
			mr, err = miniredis.Run()
			Expect(err).To(BeNil())
			client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		})

		AfterEach(func() {
			mr.Close()
		})

		It("appends the event to the stream", func() {
			w := NewRedisStreamWriter(client, "portal:status", 100)
			Expect(w.Write(context.TODO(), "ignored", testEvent())).To(Succeed())

			entries, err := client.XRange(context.TODO(), "portal:status", "-", "+").Result()
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Values["type"]).To(Equal(VerificationStatusKind))
			Expect(entries[0].Values["subject"]).To(Equal("record-1"))
			Expect(entries[0].Values["data"]).To(ContainSubstring("approved"))
		})

		It("uses the topic when no stream is configured", func() {
			w := NewRedisStreamWriter(client, "", 0)
			Expect(w.Write(context.TODO(), "topic-stream", testEvent())).To(Succeed())

			n, err := client.XLen(context.TODO(), "topic-stream").Result()
			Expect(err).To(BeNil())
			Expect(n).To(Equal(int64(1)))
		})
	})

	Context("kafka", func() {
		It("sends the event keyed by subject", func() {
			producer := mocks.NewSyncProducer(GinkgoT(), nil)
			producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
				Expect(msg.Topic).To(Equal("portal"))
				key, err := msg.Key.Encode()
				Expect(err).To(BeNil())
				Expect(string(key)).To(Equal("record-1"))
				return nil
			})

			w := NewKafkaWriterFromProducer(producer)
			Expect(w.Write(context.TODO(), "portal", testEvent())).To(Succeed())
			Expect(w.Close(context.TODO())).To(Succeed())
		})
	})

	Context("s3 archive", func() {
		It("stores the event under a dated key", func() {
			fake := &fakeS3{}
			w := NewS3ArchiveWriter(fake, "archive", "events")
			Expect(w.Write(context.TODO(), "portal", testEvent())).To(Succeed())

			Expect(fake.keys).To(Equal([]string{"events/portal/2025/04/02/evt-1.json"}))
			Expect(fake.bodies[0]).To(ContainSubstring(`"subject":"record-1"`))
		})
	})
})

type fakeS3 struct {
	keys   []string
	bodies []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, *in.Key)
	f.bodies = append(f.bodies, strings.TrimSpace(string(body)))
	return &s3.PutObjectOutput{}, nil
}
