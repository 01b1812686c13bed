package v1_test

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/catalog"
	v1 "github.com/careerlink/portal-engine/internal/handlers/v1"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/triage"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/requestid"
)

var _ = Describe("api v1", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		cleanup func()
		router  http.Handler
	)

	BeforeAll(func() {
		s, gormdb, cleanup = newTestStore()
		router = newRouter(s)
	})

	AfterAll(func() {
		cleanup()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM notes;")
		gormdb.Exec("DELETE FROM application_records;")
		gormdb.Exec("DELETE FROM job_postings;")
		gormdb.Exec("DELETE FROM document_submissions;")
		gormdb.Exec("DELETE FROM verification_records;")
		gormdb.Exec("DELETE FROM accounts;")
	})

	register := func(kind model.AccountKind, email string) model.Account {
		rec := do(router, call{method: http.MethodPost, path: "/api/v1/accounts", body: service.AccountForm{
			Kind:        kind,
			DisplayName: "Test " + email,
			Email:       email,
		}})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		return decode[model.Account](rec)
	}

	verificationPath := func(id uuid.UUID, suffix string) string {
		return fmt.Sprintf("/api/v1/verifications/%s%s", id, suffix)
	}

	Context("accounts", func() {
		It("registers an account with a pending verification", func() {
			account := register(model.AccountKindIndividual, "jane@example.test")
			Expect(account.Verification).NotTo(BeNil())
			Expect(account.Verification.Status).To(Equal(model.VerificationPending))

			rec := do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/accounts/%s/verification", account.ID)})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get(v1.ETagHeader)).To(Equal(`"1"`))
		})

		It("validates the body", func() {
			rec := do(router, call{method: http.MethodPost, path: "/api/v1/accounts", body: map[string]string{
				"kind":        "government",
				"displayName": "  ",
				"email":       "nobody@example.test",
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			msg := decode[v1.Message](rec)
			Expect(msg.Message).To(ContainSubstring("Kind failed on account_kind"))
			Expect(msg.Message).To(ContainSubstring("DisplayName failed on not_blank"))
			Expect(msg.RequestID).NotTo(BeEmpty())
		})

		It("echoes the caller's request id", func() {
			req := call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/accounts/%s", uuid.New())}
			rec := do(router, req)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Header().Get(requestid.Header)).To(Equal(decode[v1.Message](rec).RequestID))
		})

		It("rejects a duplicate email", func() {
			register(model.AccountKindOrganization, "hr@acme.test")

			rec := do(router, call{method: http.MethodPost, path: "/api/v1/accounts", body: service.AccountForm{
				Kind:        model.AccountKindOrganization,
				DisplayName: "Acme again",
				Email:       "HR@acme.test",
			}})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("only lets admins register accounts", func() {
			holder := uuid.New()
			rec := do(router, call{method: http.MethodPost, path: "/api/v1/accounts", account: &holder, body: service.AccountForm{
				Kind:        model.AccountKindIndividual,
				DisplayName: "Sneaky",
				Email:       "sneaky@example.test",
			}})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("deletes an account", func() {
			account := register(model.AccountKindIndividual, "gone@example.test")

			rec := do(router, call{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/accounts/%s", account.ID)})
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(router, call{method: http.MethodGet, path: verificationPath(account.Verification.ID, "")})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("verification actions", func() {
		It("runs the review through the actions endpoint", func() {
			account := register(model.AccountKindIndividual, "candidate@example.test")
			id := account.Verification.ID

			rec := do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), account: &account.ID, body: map[string]any{
				"action": workflow.ActionSubmitDocuments,
				"documents": []workflow.DocumentInput{
					{Type: catalog.IdentityProof, Name: "id.pdf", StorageReference: "jane/id.pdf", Size: 2048},
				},
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(rec.Header().Get(v1.ETagHeader)).To(Equal(`"2"`))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), account: &account.ID, body: map[string]any{
				"action": workflow.ActionApprove,
			}})
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), ifMatch: `"1"`, body: map[string]any{
				"action": workflow.ActionStartReview,
			}})
			Expect(rec.Code).To(Equal(http.StatusConflict))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), ifMatch: `W/"2"`, body: map[string]any{
				"action": workflow.ActionStartReview,
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			res := decode[service.Result[model.VerificationRecord]](rec)
			Expect(res.Record.Status).To(Equal(model.VerificationUnderReview))
			Expect(res.Record.Version).To(Equal(3))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": workflow.ActionReject,
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": workflow.ActionReject,
				"reason": "transcript missing",
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

			rec = do(router, call{method: http.MethodGet, path: verificationPath(id, "/notes")})
			Expect(rec.Code).To(Equal(http.StatusOK))
			notes := decode[model.NoteList](rec)
			Expect(notes).NotTo(BeEmpty())
			Expect(notes[len(notes)-1].Text).To(ContainSubstring("rejected"))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), account: &account.ID, body: map[string]any{
				"action": workflow.ActionSubmitDocuments,
				"documents": []workflow.DocumentInput{
					{Type: catalog.AcademicTranscript, Name: "transcript.pdf", StorageReference: "jane/transcript.pdf"},
				},
			}})
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("accepts flat action bodies and keeps the admin notes", func() {
			account := register(model.AccountKindIndividual, "flat@example.test")
			id := account.Verification.ID

			rec := do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), account: &account.ID, body: map[string]any{
				"action": "submit_documents",
				"documents": []map[string]any{
					{"name": "id.pdf", "type": "identity_proof", "url": "s3://docs/id.pdf", "size": 10},
				},
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			res := decode[service.Result[model.VerificationRecord]](rec)
			Expect(res.Record.Documents).To(HaveLen(1))
			Expect(res.Record.Documents[0].StorageReference).To(Equal("s3://docs/id.pdf"))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": "start_review",
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": "approve",
				"note":   "misspelled field",
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": "approve",
				"notes":  "all good",
			}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

			rec = do(router, call{method: http.MethodGet, path: verificationPath(id, "/notes")})
			Expect(rec.Code).To(Equal(http.StatusOK))
			texts := []string{}
			for _, n := range decode[model.NoteList](rec) {
				texts = append(texts, n.Text)
			}
			Expect(texts).To(ContainElement("all good"))
		})

		It("reports the requirements", func() {
			account := register(model.AccountKindOrganization, "req@acme.test")

			rec := do(router, call{method: http.MethodGet, path: verificationPath(account.Verification.ID, "/requirements"), account: &account.ID})
			Expect(rec.Code).To(Equal(http.StatusOK))
			req := decode[service.Requirements](rec)
			Expect(req.Satisfied).To(BeFalse())
			Expect(req.Missing).To(ConsistOf(catalog.BusinessRegistration, catalog.TaxCertificate))
		})

		It("rejects malformed input", func() {
			account := register(model.AccountKindIndividual, "bad@example.test")
			id := account.Verification.ID

			rec := do(router, call{method: http.MethodGet, path: "/api/v1/verifications/not-a-uuid"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), ifMatch: "latest", body: map[string]any{
				"action": workflow.ActionStartReview,
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action": "escalate",
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action":   workflow.ActionSetPriority,
				"priority": "urgent",
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodPost, path: verificationPath(id, "/actions"), body: map[string]any{
				"action":  workflow.ActionStartReview,
				"payload": map[string]string{"notes": "nested"},
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(router, call{method: http.MethodGet, path: "/api/v1/verifications?status=waiting"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("lists verifications by status", func() {
			register(model.AccountKindIndividual, "one@example.test")
			register(model.AccountKindOrganization, "two@acme.test")

			rec := do(router, call{method: http.MethodGet, path: "/api/v1/verifications?status=pending&kind=organization"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[model.VerificationList](rec)).To(HaveLen(1))
		})
	})

	Context("applications", func() {
		createPosting := func(org uuid.UUID) model.JobPosting {
			rec := do(router, call{method: http.MethodPost, path: "/api/v1/postings", account: &org, body: service.PostingForm{
				OrganizationID: org,
				Title:          "Backend engineer",
			}})
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			return decode[model.JobPosting](rec)
		}

		It("applies and moves through the pipeline", func() {
			org := register(model.AccountKindOrganization, "jobs@acme.test")
			candidate := register(model.AccountKindIndividual, "dev@example.test")
			posting := createPosting(org.ID)

			rec := do(router, call{method: http.MethodPost, path: fmt.Sprintf("/api/v1/postings/%s/applications", posting.ID), account: &candidate.ID})
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			application := decode[service.Result[model.ApplicationRecord]](rec).Record
			Expect(application.Status).To(Equal(model.ApplicationApplied))

			rec = do(router, call{method: http.MethodPost, path: fmt.Sprintf("/api/v1/postings/%s/applications", posting.ID), account: &candidate.ID})
			Expect(rec.Code).To(Equal(http.StatusConflict))

			actions := fmt.Sprintf("/api/v1/applications/%s/actions", application.ID)
			rec = do(router, call{method: http.MethodPost, path: actions, body: map[string]any{"action": workflow.ActionCallForInterview}})
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

			for _, action := range []workflow.Action{workflow.ActionMarkReviewed, workflow.ActionShortlist} {
				rec = do(router, call{method: http.MethodPost, path: actions, body: map[string]any{"action": action}})
				Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			}

			rec = do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/applications?organizationId=%s&status=shortlisted", org.ID), account: &org.ID})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[model.ApplicationList](rec)).To(HaveLen(1))

			rec = do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/applications/%s", application.ID)})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get(v1.ETagHeader)).To(Equal(`"3"`))

			rec = do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/applications/%s/notes", application.ID), account: &candidate.ID})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[model.NoteList](rec)).To(HaveLen(3))
		})

		It("needs an account to apply", func() {
			org := register(model.AccountKindOrganization, "careers@acme.test")
			posting := createPosting(org.ID)

			rec := do(router, call{method: http.MethodPost, path: fmt.Sprintf("/api/v1/postings/%s/applications", posting.ID)})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("keeps postings on organization accounts", func() {
			candidate := register(model.AccountKindIndividual, "solo@example.test")

			rec := do(router, call{method: http.MethodPost, path: "/api/v1/postings", body: service.PostingForm{
				OrganizationID: candidate.ID,
				Title:          "Freelance",
			}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("triage and statistics", func() {
		It("builds the verification queue", func() {
			register(model.AccountKindIndividual, "q1@example.test")
			register(model.AccountKindIndividual, "q2@example.test")

			rec := do(router, call{method: http.MethodGet, path: "/api/v1/triage/verifications?kind=individual"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[[]triage.Entry](rec)).To(HaveLen(2))

			rec = do(router, call{method: http.MethodGet, path: "/api/v1/triage/verifications?minPriority=critical"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("suggests a priority for one record", func() {
			account := register(model.AccountKindIndividual, "s@example.test")

			rec := do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/triage/verifications/%s", account.Verification.ID)})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[triage.Entry](rec).ID).To(Equal(account.Verification.ID))

			rec = do(router, call{method: http.MethodGet, path: fmt.Sprintf("/api/v1/triage/postings/%s", account.Verification.ID)})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("exports statistics as a workbook", func() {
			register(model.AccountKindOrganization, "stats@acme.test")

			rec := do(router, call{method: http.MethodGet, path: "/api/v1/statistics/export"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))

			rec = do(router, call{method: http.MethodGet, path: "/api/v1/statistics/export?format=csv"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("keeps statistics for admins", func() {
			account := register(model.AccountKindIndividual, "curious@example.test")

			rec := do(router, call{method: http.MethodGet, path: "/api/v1/statistics/verifications", account: &account.ID})
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = do(router, call{method: http.MethodGet, path: "/api/v1/statistics/verifications"})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
