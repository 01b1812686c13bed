package workflow_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

func resolvedConsistent(r *model.VerificationRecord) bool {
	return (r.ResolvedAt != nil) == r.Status.Resolved()
}

var _ = Describe("verification engine", func() {
	var (
		clock  *fakeClock
		engine *workflow.VerificationEngine
		record model.VerificationRecord
	)

	BeforeEach(func() {
		clock = newFakeClock()
		engine = workflow.NewVerificationEngine(catalog.Default(), workflow.WithClock(clock.Now))

		var err error
		record, err = engine.NewRecord(model.Account{ID: uuid.New(), Kind: model.AccountKindIndividual})
		Expect(err).To(BeNil())
	})

	Context("new record", func() {
		It("starts pending with medium priority and empty collections", func() {
			Expect(record.Status).To(Equal(model.VerificationPending))
			Expect(record.Priority).To(Equal(model.PriorityMedium))
			Expect(record.Documents).To(BeEmpty())
			Expect(record.Notes).To(BeEmpty())
			Expect(record.RequestedAt).To(BeNil())
			Expect(record.ResolvedAt).To(BeNil())
		})

		It("fails for an unknown account kind", func() {
			_, err := engine.NewRecord(model.Account{ID: uuid.New(), Kind: "robot"})
			var unknown *catalog.ErrUnknownAccountKind
			Expect(errors.As(err, &unknown)).To(BeTrue())
		})
	})

	Context("request verification", func() {
		It("sets requestedAt only on the first call", func() {
			t, err := engine.RequestVerification(&record)
			Expect(err).To(BeNil())
			Expect(t.StateChanged).To(BeTrue())
			first := *record.RequestedAt

			clock.Advance(time.Hour)
			t, err = engine.RequestVerification(&record)
			Expect(err).To(BeNil())
			Expect(t.Noop()).To(BeTrue())
			Expect(*record.RequestedAt).To(Equal(first))
		})

		It("fails on a decided record", func() {
			record.Status = model.VerificationApproved
			_, err := engine.RequestVerification(&record)
			var invalid *workflow.ErrInvalidState
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	Context("submit documents", func() {
		It("tracks required document satisfaction", func() {
			_, err := engine.SubmitDocuments(&record, []workflow.DocumentInput{
				{Type: catalog.IdentityProof, Name: "passport.pdf", StorageReference: "s3://docs/1"},
			})
			Expect(err).To(BeNil())
			ok, err := catalog.Default().Satisfied(record.AccountKind, record.Documents)
			Expect(err).To(BeNil())
			Expect(ok).To(BeFalse())

			_, err = engine.SubmitDocuments(&record, []workflow.DocumentInput{
				{Type: catalog.AcademicTranscript, Name: "transcript.pdf", StorageReference: "s3://docs/2"},
			})
			Expect(err).To(BeNil())
			ok, err = catalog.Default().Satisfied(record.AccountKind, record.Documents)
			Expect(err).To(BeNil())
			Expect(ok).To(BeTrue())
			Expect(record.Status).To(Equal(model.VerificationPending))
		})

		It("rejects a type not listed for the account kind", func() {
			_, err := engine.SubmitDocuments(&record, []workflow.DocumentInput{
				{Type: catalog.BusinessRegistration, Name: "reg.pdf", StorageReference: "s3://docs/3"},
			})
			var invalid *workflow.ErrInvalidDocument
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(record.Documents).To(BeEmpty())
		})

		It("is closed once a decision is made", func() {
			_, err := engine.MoveToUnderReview(&record)
			Expect(err).To(BeNil())
			_, err = engine.Approve(&record, "")
			Expect(err).To(BeNil())

			_, err = engine.SubmitDocuments(&record, []workflow.DocumentInput{
				{Type: catalog.IdentityProof, Name: "passport.pdf", StorageReference: "s3://docs/1"},
			})
			var closed *workflow.ErrClosed
			Expect(errors.As(err, &closed)).To(BeTrue())
		})
	})

	Context("decisions", func() {
		BeforeEach(func() {
			_, err := engine.MoveToUnderReview(&record)
			Expect(err).To(BeNil())
		})

		It("sets requestedAt when review starts without a request", func() {
			Expect(record.RequestedAt).NotTo(BeNil())
			Expect(record.Notes).To(HaveLen(1))
			Expect(record.Notes[0].Text).To(Equal("status changed from pending to under_review"))
			Expect(record.Notes[0].Author).To(Equal(model.AuthorSystem))
		})

		It("requires a reason to reject", func() {
			_, err := engine.Reject(&record, "  ")
			var missing *workflow.ErrMissingReason
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(record.Status).To(Equal(model.VerificationUnderReview))
		})

		It("only approves from under review", func() {
			_, err := engine.Approve(&record, "")
			Expect(err).To(BeNil())

			_, err = engine.Approve(&record, "")
			var invalid *workflow.ErrInvalidTransition
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.From).To(Equal("approved"))
		})

		It("keeps resolvedAt consistent across reject, reopen and approve", func() {
			t, err := engine.Reject(&record, "missing ID")
			Expect(err).To(BeNil())
			Expect(t.Event).NotTo(BeNil())
			Expect(t.Event.Reason).To(Equal("missing ID"))
			Expect(resolvedConsistent(&record)).To(BeTrue())

			clock.Advance(time.Hour)
			_, err = engine.Reopen(&record, "")
			Expect(err).To(BeNil())
			Expect(record.ResolvedAt).To(BeNil())
			Expect(resolvedConsistent(&record)).To(BeTrue())

			clock.Advance(time.Hour)
			_, err = engine.Approve(&record, "documents verified")
			Expect(err).To(BeNil())
			Expect(record.Status).To(Equal(model.VerificationApproved))
			Expect(*record.ResolvedAt).To(Equal(clock.Now()))

			texts := make([]string, 0, len(record.Notes))
			for _, n := range record.Notes {
				texts = append(texts, n.Text)
			}
			Expect(texts).To(Equal([]string{
				"status changed from pending to under_review",
				"missing ID",
				"status changed from under_review to rejected",
				"status changed from rejected to under_review",
				"documents verified",
				"status changed from under_review to approved",
			}))
		})

		It("sets priority without touching status", func() {
			t, err := engine.SetPriority(&record, model.PriorityHigh)
			Expect(err).To(BeNil())
			Expect(t.PriorityChanged).To(BeTrue())
			Expect(t.StateChanged).To(BeFalse())
			Expect(record.Priority).To(Equal(model.PriorityHigh))
			Expect(record.PrioritySetAt).NotTo(BeNil())
			Expect(record.Status).To(Equal(model.VerificationUnderReview))
		})
	})

	Context("notes and document checks", func() {
		It("rejects empty notes", func() {
			_, err := engine.AddNote(&record, "", model.AuthorAdmin)
			var invalid *workflow.ErrInvalidInput
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("marks a document verified without changing status", func() {
			_, err := engine.SubmitDocuments(&record, []workflow.DocumentInput{
				{Type: catalog.IdentityProof, Name: "passport.pdf", StorageReference: "s3://docs/1"},
			})
			Expect(err).To(BeNil())

			t, err := engine.VerifyDocument(&record, 0)
			Expect(err).To(BeNil())
			Expect(t.VerifiedDocument).NotTo(BeNil())
			Expect(record.Documents[0].Verified).To(BeTrue())
			Expect(record.Status).To(Equal(model.VerificationPending))

			_, err = engine.VerifyDocument(&record, 3)
			var invalid *workflow.ErrInvalidDocument
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	It("lists the actions available from a status", func() {
		Expect(workflow.VerificationActions(model.VerificationApproved)).To(ConsistOf(workflow.ActionReopen))
		Expect(workflow.VerificationActions(model.VerificationUnderReview)).To(ConsistOf(workflow.ActionApprove, workflow.ActionReject))
	})
})
