package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/careerlink/portal-engine/internal/handlers/validator"
	"github.com/careerlink/portal-engine/internal/service"
)

// Services groups the service layer exposed over HTTP.
type Services struct {
	Accounts      *service.AccountService
	Postings      *service.PostingService
	Verifications *service.VerificationService
	Applications  *service.ApplicationService
	Triage        *service.TriageService
	Statistics    *service.StatisticsService
}

type ServiceHandler struct {
	accountSrv      *service.AccountService
	postingSrv      *service.PostingService
	verificationSrv *service.VerificationService
	applicationSrv  *service.ApplicationService
	triageSrv       *service.TriageService
	statisticsSrv   *service.StatisticsService
	dispatcher      *service.Dispatcher
	validator       *validator.Validator
}

func NewServiceHandler(s Services) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewAccountValidationRules()...)
	v.Register(validator.NewPostingValidationRules()...)
	v.Register(validator.NewQueryValidationRules()...)

	return &ServiceHandler{
		accountSrv:      s.Accounts,
		postingSrv:      s.Postings,
		verificationSrv: s.Verifications,
		applicationSrv:  s.Applications,
		triageSrv:       s.Triage,
		statisticsSrv:   s.Statistics,
		dispatcher:      service.NewDispatcher(s.Verifications, s.Applications),
		validator:       v,
	}
}

// Routes mounts the /api/v1 tree on r.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.RegisterAccount)
			r.Get("/{id}", h.GetAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/verification", h.GetAccountVerification)
		})

		r.Route("/postings", func(r chi.Router) {
			r.Get("/", h.ListPostings)
			r.Post("/", h.CreatePosting)
			r.Get("/{id}", h.GetPosting)
			r.Post("/{id}/applications", h.Apply)
		})

		r.Route("/verifications", func(r chi.Router) {
			r.Get("/", h.ListVerifications)
			r.Get("/{id}", h.GetVerification)
			r.Get("/{id}/notes", h.ListVerificationNotes)
			r.Get("/{id}/requirements", h.GetRequirements)
			r.Post("/{id}/actions", h.VerificationAction)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Get("/{id}", h.GetApplication)
			r.Get("/{id}/notes", h.ListApplicationNotes)
			r.Post("/{id}/actions", h.ApplicationAction)
		})

		r.Route("/triage", func(r chi.Router) {
			r.Get("/verifications", h.VerificationQueue)
			r.Get("/applications", h.ApplicationQueue)
			r.Get("/{recordType}/{id}", h.Suggest)
		})

		r.Route("/statistics", func(r chi.Router) {
			r.Get("/verifications", h.VerificationStatistics)
			r.Get("/applications", h.ApplicationStatistics)
			r.Get("/export", h.ExportStatistics)
		})
	})
}
