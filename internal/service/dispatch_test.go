package service_test

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/events"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/stats"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/triage"
	"github.com/careerlink/portal-engine/internal/workflow"
)

var _ = Describe("dispatcher", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		cleanup    func()
		accounts   *service.AccountService
		dispatcher *service.Dispatcher
		writer     *testWriter
		producer   *events.EventProducer
	)

	BeforeAll(func() {
		s, gormdb, cleanup = newTestStore()
	})

	AfterAll(func() {
		cleanup()
	})

	BeforeEach(func() {
		writer = newTestWriter()
		producer = events.NewEventProducer(writer)
		notifier := service.NewEventNotifier(producer)
		engine := workflow.NewVerificationEngine(catalog.Default())
		accounts = service.NewAccountService(s, engine)
		dispatcher = service.NewDispatcher(
			service.NewVerificationService(s, engine, notifier),
			service.NewApplicationService(s, workflow.NewApplicationEngine(), notifier),
		)
	})

	AfterEach(func() {
		_ = producer.Close()
		gormdb.Exec("DELETE FROM notes;")
		gormdb.Exec("DELETE FROM document_submissions;")
		gormdb.Exec("DELETE FROM verification_records;")
		gormdb.Exec("DELETE FROM accounts;")
	})

	verification := func() uuid.UUID {
		a, err := accounts.Register(adminContext(), service.AccountForm{Kind: model.AccountKindOrganization, DisplayName: "Acme", Email: uuid.NewString() + "@acme.test"})
		Expect(err).To(BeNil())
		return a.Verification.ID
	}

	payload := func(v any) json.RawMessage {
		data, err := json.Marshal(v)
		Expect(err).To(BeNil())
		return data
	}

	It("routes actions with their payloads and publishes the status change", func() {
		id := verification()

		_, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionStartReview,
		})
		Expect(err).To(BeNil())

		out, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType:      model.RecordTypeVerification,
			RecordID:        id,
			Action:          workflow.ActionReject,
			ExpectedVersion: intPtr(2),
			Payload:         payload(map[string]string{"reason": "expired certificate"}),
		})
		Expect(err).To(BeNil())
		res, ok := out.(*service.Result[model.VerificationRecord])
		Expect(ok).To(BeTrue())
		Expect(res.Record.Status).To(Equal(model.VerificationRejected))

		Expect(producer.Close()).To(Succeed())
		Expect(writer.Len()).To(Equal(2))
		var body events.StatusChanged
		Expect(json.NewDecoder(bytes.NewReader(writer.Events()[1].Data())).Decode(&body)).To(Succeed())
		Expect(body.NewStatus).To(Equal("rejected"))
		Expect(body.Reason).To(Equal("expired certificate"))
	})

	It("decodes document submissions", func() {
		id := verification()

		out, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification,
			RecordID:   id,
			Action:     workflow.ActionSubmitDocuments,
			Payload: payload(map[string]any{"documents": []map[string]any{
				{"type": "tax_certificate", "name": "tax.pdf", "url": "acme/tax.pdf", "size": 10},
			}}),
		})
		Expect(err).To(BeNil())
		Expect(out.(*service.Result[model.VerificationRecord]).Record.Documents).To(HaveLen(1))
	})

	It("rejects unknown actions", func() {
		_, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: verification(), Action: workflow.ActionShortlist,
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownAction{}))
	})

	It("takes the reject reason from notes and refuses fields on bare actions", func() {
		id := verification()

		_, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionStartReview,
			Payload: payload(map[string]string{"notes": "looking now"}),
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidPayload{}))

		_, err = dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionStartReview,
		})
		Expect(err).To(BeNil())

		out, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionReject,
			Payload: payload(map[string]string{"notes": "registration expired"}),
		})
		Expect(err).To(BeNil())
		notes := out.(*service.Result[model.VerificationRecord]).Record.Notes
		texts := []string{}
		for _, n := range notes {
			texts = append(texts, n.Text)
		}
		Expect(texts).To(ContainElement("registration expired"))
	})

	It("rejects malformed payloads", func() {
		id := verification()

		_, err := dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionSetPriority,
			Payload: payload(map[string]string{"priority": "urgent"}),
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidPayload{}))

		_, err = dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: model.RecordTypeVerification, RecordID: id, Action: workflow.ActionVerifyDocument,
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidPayload{}))

		_, err = dispatcher.Dispatch(adminContext(), service.ActionRequest{
			RecordType: "invoice", RecordID: id, Action: workflow.ActionApprove,
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidPayload{}))
	})
})

var _ = Describe("statistics and triage", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		cleanup  func()
		accounts *service.AccountService
		verifs   *service.VerificationService
		stat     *service.StatisticsService
		queue    *service.TriageService
	)

	BeforeAll(func() {
		s, gormdb, cleanup = newTestStore()
		engine := workflow.NewVerificationEngine(catalog.Default())
		scorer := triage.NewScorer(catalog.Default(), triage.DefaultThresholds())
		accounts = service.NewAccountService(s, engine)
		verifs = service.NewVerificationService(s, engine, nil)
		stat = service.NewStatisticsService(s, catalog.Default(), scorer, stats.Options{})
		queue = service.NewTriageService(s, scorer)

		for i := 0; i < 3; i++ {
			a, err := accounts.Register(adminContext(), service.AccountForm{Kind: model.AccountKindIndividual, DisplayName: "Jane", Email: uuid.NewString() + "@example.test"})
			Expect(err).To(BeNil())
			if i > 0 {
				_, err = verifs.StartReview(adminContext(), service.Target{ID: a.Verification.ID})
				Expect(err).To(BeNil())
			}
			if i == 2 {
				_, err = verifs.Approve(adminContext(), service.Target{ID: a.Verification.ID}, "")
				Expect(err).To(BeNil())
			}
		}
	})

	AfterAll(func() {
		gormdb.Exec("DELETE FROM notes;")
		cleanup()
	})

	It("counts verifications by status", func() {
		kind := model.AccountKindIndividual
		v, err := stat.Verifications(adminContext(), service.StatsScope{AccountKind: &kind})
		Expect(err).To(BeNil())
		Expect(v.Total).To(Equal(3))
		Expect(v.ByStatus[model.VerificationPending]).To(Equal(1))
		Expect(v.ByStatus[model.VerificationUnderReview]).To(Equal(1))
		Expect(v.ByStatus[model.VerificationApproved]).To(Equal(1))
		Expect(v.HasResolutionData).To(BeTrue())

		org := model.AccountKindOrganization
		v, err = stat.Verifications(adminContext(), service.StatsScope{AccountKind: &org})
		Expect(err).To(BeNil())
		Expect(v.Total).To(BeZero())
	})

	It("is reserved to administrators", func() {
		_, err := stat.Verifications(holderContext(uuid.New()), service.StatsScope{})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrForbidden{}))
	})

	It("exports a workbook", func() {
		var buf bytes.Buffer
		Expect(stat.Export(adminContext(), service.StatsScope{}, &buf)).To(Succeed())
		Expect(buf.Len()).To(BeNumerically(">", 0))
	})

	It("queues open verifications with requested records first", func() {
		entries, err := queue.VerificationQueue(adminContext(), service.QueueFilter{})
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Status).To(Equal(string(model.VerificationUnderReview)))
		Expect(entries[1].WaitingSince).To(BeNil())

		high := model.PriorityHigh
		entries, err = queue.VerificationQueue(adminContext(), service.QueueFilter{MinPriority: &high})
		Expect(err).To(BeNil())
		Expect(entries).To(BeEmpty())
	})
})
