package workflow_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

var _ = Describe("application engine", func() {
	var (
		clock     *fakeClock
		engine    *workflow.ApplicationEngine
		posting   model.JobPosting
		candidate model.Account
		app       *model.ApplicationRecord
	)

	BeforeEach(func() {
		clock = newFakeClock()
		engine = workflow.NewApplicationEngine(workflow.WithClock(clock.Now))
		deadline := clock.Now().Add(72 * time.Hour)
		posting = model.JobPosting{ID: uuid.New(), OrganizationID: uuid.New(), Title: "Backend engineer", Deadline: &deadline}
		candidate = model.Account{ID: uuid.New(), Kind: model.AccountKindIndividual}

		var err error
		app, _, err = engine.NewApplication(posting, candidate)
		Expect(err).To(BeNil())
	})

	Context("apply", func() {
		It("creates an applied record", func() {
			Expect(app.Status).To(Equal(model.ApplicationApplied))
			Expect(app.AppliedAt).To(Equal(clock.Now()))
			Expect(app.OrganizationID).To(Equal(posting.OrganizationID))
			Expect(app.OnShortlist()).To(BeFalse())
		})

		It("refuses organizations", func() {
			_, _, err := engine.NewApplication(posting, model.Account{ID: uuid.New(), Kind: model.AccountKindOrganization})
			var invalid *workflow.ErrInvalidState
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("refuses after the deadline", func() {
			clock.Advance(73 * time.Hour)
			_, _, err := engine.NewApplication(posting, candidate)
			var closed *workflow.ErrPostingClosed
			Expect(errors.As(err, &closed)).To(BeTrue())
		})
	})

	Context("prerequisites", func() {
		It("cannot call an applied candidate for interview", func() {
			_, err := engine.CallForInterview(app)
			var prereq *workflow.ErrPrerequisiteNotMet
			Expect(errors.As(err, &prereq)).To(BeTrue())
			Expect(prereq.Prerequisite).To(Equal("shortlisted"))
			Expect(app.Status).To(Equal(model.ApplicationApplied))
			Expect(app.Notes).To(HaveLen(1))
		})

		It("cannot offer before selection", func() {
			_, err := engine.Shortlist(app)
			Expect(err).To(BeNil())
			_, err = engine.MakeOffer(app)
			var prereq *workflow.ErrPrerequisiteNotMet
			Expect(errors.As(err, &prereq)).To(BeTrue())
		})

		It("treats moving backwards as an invalid transition", func() {
			_, err := engine.Shortlist(app)
			Expect(err).To(BeNil())
			_, err = engine.MarkReviewed(app)
			var invalid *workflow.ErrInvalidTransition
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	Context("full pipeline", func() {
		It("reaches accepted with shortlistedAt set", func() {
			steps := []func(*model.ApplicationRecord) (*workflow.Transition, error){
				engine.MarkReviewed,
				engine.Shortlist,
				engine.CallForInterview,
				engine.Select,
				engine.MakeOffer,
				engine.Accept,
			}
			for _, step := range steps {
				clock.Advance(time.Hour)
				t, err := step(app)
				Expect(err).To(BeNil())
				Expect(t.StatusChanged()).To(BeTrue())
				Expect(t.Event).NotTo(BeNil())
				Expect(*t.Event.OrganizationID).To(Equal(posting.OrganizationID))
				if app.Status.Stage() >= model.ApplicationInterviewCalled.Stage() {
					Expect(app.ShortlistedAt).NotTo(BeNil())
				}
			}
			Expect(app.Status).To(Equal(model.ApplicationAccepted))
			Expect(app.ResolvedAt).NotTo(BeNil())
			Expect(app.OnShortlist()).To(BeTrue())
		})

		It("rejects every mutation but notes once terminal", func() {
			_, err := engine.Reject(app, "position filled")
			Expect(err).To(BeNil())
			Expect(app.Notes[len(app.Notes)-2].Text).To(Equal("position filled"))

			_, err = engine.Shortlist(app)
			var terminal *workflow.ErrAlreadyTerminal
			Expect(errors.As(err, &terminal)).To(BeTrue())
			_, err = engine.Reject(app, "")
			Expect(errors.As(err, &terminal)).To(BeTrue())
			_, err = engine.RevertStatus(app, model.ApplicationApplied, "mistake")
			Expect(errors.As(err, &terminal)).To(BeTrue())

			_, err = engine.AddNote(app, "candidate asked for feedback", model.AuthorAccountHolder)
			Expect(err).To(BeNil())
		})
	})

	Context("shortlist membership", func() {
		It("flags without changing status", func() {
			t, err := engine.FlagShortlist(app)
			Expect(err).To(BeNil())
			Expect(t.StatusChanged()).To(BeFalse())
			Expect(app.OnShortlist()).To(BeTrue())
			Expect(app.ShortlistedAt).To(BeNil())

			_, err = engine.Unshortlist(app)
			Expect(err).To(BeNil())
			Expect(app.OnShortlist()).To(BeFalse())
			Expect(app.Status).To(Equal(model.ApplicationApplied))
		})

		It("moves a shortlisted application back to reviewed", func() {
			_, err := engine.Shortlist(app)
			Expect(err).To(BeNil())
			shortlistedAt := *app.ShortlistedAt

			_, err = engine.Unshortlist(app)
			Expect(err).To(BeNil())
			Expect(app.Status).To(Equal(model.ApplicationReviewed))

			clock.Advance(time.Hour)
			_, err = engine.Shortlist(app)
			Expect(err).To(BeNil())
			Expect(*app.ShortlistedAt).To(Equal(shortlistedAt))
		})

		It("keeps a reverted candidate on the shortlist until unshortlisted", func() {
			_, err := engine.Shortlist(app)
			Expect(err).To(BeNil())
			Expect(app.ShortlistFlag).To(BeTrue())

			_, err = engine.RevertStatus(app, model.ApplicationReviewed, "shortlisted the wrong candidate")
			Expect(err).To(BeNil())
			Expect(app.Status).To(Equal(model.ApplicationReviewed))
			Expect(app.OnShortlist()).To(BeTrue())

			t, err := engine.Unshortlist(app)
			Expect(err).To(BeNil())
			Expect(t.StatusChanged()).To(BeFalse())
			Expect(app.Status).To(Equal(model.ApplicationReviewed))
			Expect(app.OnShortlist()).To(BeFalse())
		})

		It("requires a revert before unshortlisting a later stage", func() {
			_, err := engine.Shortlist(app)
			Expect(err).To(BeNil())
			_, err = engine.CallForInterview(app)
			Expect(err).To(BeNil())

			_, err = engine.Unshortlist(app)
			var invalid *workflow.ErrInvalidTransition
			Expect(errors.As(err, &invalid)).To(BeTrue())

			_, err = engine.RevertStatus(app, model.ApplicationShortlisted, "")
			var missing *workflow.ErrMissingReason
			Expect(errors.As(err, &missing)).To(BeTrue())

			t, err := engine.RevertStatus(app, model.ApplicationShortlisted, "interview slot cancelled")
			Expect(err).To(BeNil())
			Expect(t.To).To(Equal("shortlisted"))
			Expect(app.ShortlistedAt).NotTo(BeNil())

			_, err = engine.Unshortlist(app)
			Expect(err).To(BeNil())
		})

		It("refuses to revert forward", func() {
			_, err := engine.RevertStatus(app, model.ApplicationSelected, "skip ahead")
			var invalid *workflow.ErrInvalidTransition
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})
})
