package service_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

var _ = Describe("application service", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		cleanup  func()
		notifier *recordingNotifier
		accounts *service.AccountService
		postings *service.PostingService
		srv      *service.ApplicationService
		org      *model.Account
	)

	BeforeAll(func() {
		s, gormdb, cleanup = newTestStore()
	})

	AfterAll(func() {
		cleanup()
	})

	BeforeEach(func() {
		notifier = &recordingNotifier{}
		accounts = service.NewAccountService(s, workflow.NewVerificationEngine(catalog.Default()))
		postings = service.NewPostingService(s)
		srv = service.NewApplicationService(s, workflow.NewApplicationEngine(), notifier)

		var err error
		org, err = accounts.Register(adminContext(), service.AccountForm{Kind: model.AccountKindOrganization, DisplayName: "Acme", Email: uuid.NewString() + "@acme.test"})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM notes;")
		gormdb.Exec("DELETE FROM application_records;")
		gormdb.Exec("DELETE FROM job_postings;")
		gormdb.Exec("DELETE FROM verification_records;")
		gormdb.Exec("DELETE FROM accounts;")
	})

	candidate := func() *model.Account {
		a, err := accounts.Register(adminContext(), service.AccountForm{Kind: model.AccountKindIndividual, DisplayName: "Jane", Email: uuid.NewString() + "@example.test"})
		Expect(err).To(BeNil())
		return a
	}

	posting := func(deadline *time.Time) *model.JobPosting {
		p, err := postings.Create(holderContext(org.ID), service.PostingForm{OrganizationID: org.ID, Title: "Backend engineer", Deadline: deadline})
		Expect(err).To(BeNil())
		return p
	}

	apply := func() (*model.Account, uuid.UUID) {
		c := candidate()
		res, err := srv.Apply(holderContext(c.ID), posting(nil).ID, c.ID)
		Expect(err).To(BeNil())
		return c, res.Record.ID
	}

	Context("apply", func() {
		It("creates an applied record with a submission note", func() {
			c := candidate()
			p := posting(nil)

			res, err := srv.Apply(holderContext(c.ID), p.ID, c.ID)
			Expect(err).To(BeNil())
			Expect(res.Record.Status).To(Equal(model.ApplicationApplied))
			Expect(res.Record.OrganizationID).To(Equal(org.ID))
			Expect(res.Record.Notes).To(HaveLen(1))
			Expect(res.Record.Notes[0].Text).To(Equal("application submitted for Backend engineer"))

			events := notifier.Events()
			Expect(events).To(HaveLen(1))
			Expect(*events[0].OrganizationID).To(Equal(org.ID))
		})

		It("refuses a second application to the same posting", func() {
			c := candidate()
			p := posting(nil)
			_, err := srv.Apply(holderContext(c.ID), p.ID, c.ID)
			Expect(err).To(BeNil())

			_, err = srv.Apply(holderContext(c.ID), p.ID, c.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDuplicateApplication{}))
		})

		It("refuses postings past their deadline", func() {
			c := candidate()
			past := time.Now().Add(-time.Hour)

			_, err := srv.Apply(holderContext(c.ID), posting(&past).ID, c.ID)
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrPostingClosed{}))
		})

		It("refuses organizations as applicants", func() {
			_, err := srv.Apply(adminContext(), posting(nil).ID, org.ID)
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrInvalidState{}))
		})

		It("refuses applying on behalf of someone else", func() {
			c := candidate()
			_, err := srv.Apply(holderContext(uuid.New()), posting(nil).ID, c.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrForbidden{}))
		})
	})

	Context("pipeline", func() {
		It("runs from applied to accepted", func() {
			c, id := apply()
			admin := adminContext()

			for _, step := range []func() (*service.Result[model.ApplicationRecord], error){
				func() (*service.Result[model.ApplicationRecord], error) { return srv.MarkReviewed(admin, service.Target{ID: id}) },
				func() (*service.Result[model.ApplicationRecord], error) { return srv.Shortlist(admin, service.Target{ID: id}) },
				func() (*service.Result[model.ApplicationRecord], error) { return srv.CallForInterview(admin, service.Target{ID: id}) },
				func() (*service.Result[model.ApplicationRecord], error) { return srv.Select(admin, service.Target{ID: id}) },
				func() (*service.Result[model.ApplicationRecord], error) { return srv.MakeOffer(admin, service.Target{ID: id}) },
			} {
				_, err := step()
				Expect(err).To(BeNil())
			}

			res, err := srv.Accept(holderContext(c.ID), service.Target{ID: id})
			Expect(err).To(BeNil())
			Expect(res.Record.Status).To(Equal(model.ApplicationAccepted))
			Expect(res.Record.ShortlistedAt).NotTo(BeNil())
			Expect(res.Record.ResolvedAt).NotTo(BeNil())
			Expect(res.Record.Version).To(Equal(7))
			Expect(notifier.Events()).To(HaveLen(7))

			_, err = srv.SetPriority(admin, service.Target{ID: id}, model.PriorityHigh)
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrAlreadyTerminal{}))

			// closed applications still take notes
			_, err = srv.AddNote(admin, service.Target{ID: id}, "start date agreed")
			Expect(err).To(BeNil())
		})

		It("requires a shortlist before the interview", func() {
			_, id := apply()

			_, err := srv.CallForInterview(adminContext(), service.Target{ID: id})
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrPrerequisiteNotMet{}))
		})

		It("does not let the candidate move the pipeline", func() {
			c, id := apply()

			_, err := srv.Shortlist(holderContext(c.ID), service.Target{ID: id})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrForbidden{}))
		})

		It("flags and unflags the shortlist without moving the stage", func() {
			_, id := apply()

			res, err := srv.FlagShortlist(adminContext(), service.Target{ID: id})
			Expect(err).To(BeNil())
			Expect(res.Record.Status).To(Equal(model.ApplicationApplied))
			Expect(res.Record.OnShortlist()).To(BeTrue())

			listed, err := srv.List(adminContext(), service.ApplicationFilter{OnShortlist: true})
			Expect(err).To(BeNil())
			Expect(listed).To(HaveLen(1))

			res, err = srv.Unshortlist(adminContext(), service.Target{ID: id})
			Expect(err).To(BeNil())
			Expect(res.Record.OnShortlist()).To(BeFalse())
			// flag changes are not status changes
			Expect(notifier.Events()).To(HaveLen(1))
		})

		It("reverts to an earlier stage with a reason", func() {
			_, id := apply()
			admin := adminContext()
			_, err := srv.Shortlist(admin, service.Target{ID: id})
			Expect(err).To(BeNil())
			_, err = srv.CallForInterview(admin, service.Target{ID: id})
			Expect(err).To(BeNil())

			_, err = srv.RevertStatus(admin, service.Target{ID: id}, model.ApplicationReviewed, "")
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrMissingReason{}))

			res, err := srv.RevertStatus(admin, service.Target{ID: id}, model.ApplicationReviewed, "interview slot cancelled")
			Expect(err).To(BeNil())
			Expect(res.Record.Status).To(Equal(model.ApplicationReviewed))
			Expect(res.Record.ShortlistedAt).NotTo(BeNil())
		})

		It("rejects with a reason and then refuses further moves", func() {
			_, id := apply()

			res, err := srv.Reject(adminContext(), service.Target{ID: id}, "position filled")
			Expect(err).To(BeNil())
			Expect(res.Record.Status).To(Equal(model.ApplicationRejected))

			_, err = srv.Shortlist(adminContext(), service.Target{ID: id})
			Expect(err).To(BeAssignableToTypeOf(&workflow.ErrAlreadyTerminal{}))
		})
	})

	Context("listing", func() {
		It("lets organizations list applications to their postings only", func() {
			apply()

			listed, err := srv.List(holderContext(org.ID), service.ApplicationFilter{OrganizationID: &org.ID})
			Expect(err).To(BeNil())
			Expect(listed).To(HaveLen(1))

			other := uuid.New()
			_, err = srv.List(holderContext(org.ID), service.ApplicationFilter{OrganizationID: &other})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrForbidden{}))
		})

		It("keeps applications when the candidate account is deleted", func() {
			c, id := apply()
			Expect(accounts.Delete(adminContext(), c.ID)).To(Succeed())

			record, err := srv.Get(adminContext(), id)
			Expect(err).To(BeNil())
			Expect(record.AccountID).To(Equal(c.ID))
		})
	})
})
