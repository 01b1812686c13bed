package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

type PostingForm struct {
	OrganizationID uuid.UUID  `json:"organizationId" validate:"uuid_set"`
	Title          string     `json:"title" validate:"required,not_blank,max=300"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// PostingService manages the small slice of job postings the engine reads.
type PostingService struct {
	store store.Store
}

func NewPostingService(s store.Store) *PostingService {
	return &PostingService{store: s}
}

func (s *PostingService) Create(ctx context.Context, form PostingForm) (*model.JobPosting, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(form.OrganizationID) {
		return nil, NewErrForbidden("create job posting", user.Subject)
	}

	org, err := s.store.Account().Get(ctx, form.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAccountNotFound(form.OrganizationID)
		}
		return nil, err
	}
	if org.Kind != model.AccountKindOrganization {
		return nil, workflow.NewErrInvalidInput("job postings belong to organization accounts, %s is %s", org.ID, org.Kind)
	}

	posting := model.JobPosting{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC(),
		OrganizationID: org.ID,
		Title:          strings.TrimSpace(form.Title),
	}
	if form.Deadline != nil {
		d := form.Deadline.UTC()
		posting.Deadline = &d
	}
	return s.store.Posting().Create(ctx, posting)
}

func (s *PostingService) Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	posting, err := s.store.Posting().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPostingNotFound(id)
		}
		return nil, err
	}
	return posting, nil
}

func (s *PostingService) List(ctx context.Context, organizationID *uuid.UUID) ([]model.JobPosting, error) {
	return s.store.Posting().List(ctx, organizationID)
}
