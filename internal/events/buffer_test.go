package events

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", Ordered, func() {
	Context("buffer", func() {
		It("pops in insertion order", func() {
			buffer := newBuffer(0)

			for _, d := range []string{"msg1", "msg2", "msg3"} {
				Expect(buffer.PushBack(&message{Kind: VerificationStatusKind, Data: []byte(d)})).To(Succeed())
			}
			Expect(buffer.Size()).To(Equal(3))
			Expect(buffer.head.Data).To(Equal([]byte("msg1")))
			Expect(buffer.tail.Data).To(Equal([]byte("msg3")))

			m := buffer.Pop()
			Expect(m).NotTo(BeNil())
			Expect(m.Data).To(Equal([]byte("msg1")))
			Expect(buffer.Size()).To(Equal(2))

			m = buffer.Pop()
			Expect(m.Data).To(Equal([]byte("msg2")))
			m = buffer.Pop()
			Expect(m.Data).To(Equal([]byte("msg3")))
			Expect(buffer.Size()).To(Equal(0))
			Expect(buffer.head).To(BeNil())
			Expect(buffer.tail).To(BeNil())

			Expect(buffer.Pop()).To(BeNil())
		})

		It("refuses messages past its capacity", func() {
			buffer := newBuffer(1)
			Expect(buffer.PushBack(&message{Kind: ApplicationStatusKind})).To(Succeed())

			err := buffer.PushBack(&message{Kind: ApplicationStatusKind})
			Expect(errors.Is(err, ErrBufferFull)).To(BeTrue())
			Expect(buffer.Size()).To(Equal(1))
		})
	})
})
