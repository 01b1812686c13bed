// Package catalog maps an account kind to the documents its verification requires.
package catalog

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/careerlink/portal-engine/internal/store/model"
)

const (
	BusinessRegistration  model.DocumentType = "business_registration"
	TaxCertificate        model.DocumentType = "tax_certificate"
	AuthorizedSignatoryID model.DocumentType = "authorized_signatory_id"

	IdentityProof      model.DocumentType = "identity_proof"
	AcademicTranscript model.DocumentType = "academic_transcript"
	CurriculumVitae    model.DocumentType = "curriculum_vitae"
)

type Requirement struct {
	Type        model.DocumentType `json:"type"`
	DisplayName string             `json:"displayName"`
	Required    bool               `json:"required"`
}

type ErrUnknownAccountKind struct {
	error
	Kind model.AccountKind
}

func NewErrUnknownAccountKind(kind model.AccountKind) *ErrUnknownAccountKind {
	return &ErrUnknownAccountKind{error: fmt.Errorf("unknown account kind %q", kind), Kind: kind}
}

// Catalog is immutable once built.
type Catalog struct {
	entries map[model.AccountKind][]Requirement
}

func Default() *Catalog {
	return &Catalog{entries: map[model.AccountKind][]Requirement{
		model.AccountKindOrganization: {
			{Type: BusinessRegistration, DisplayName: "Business registration certificate", Required: true},
			{Type: TaxCertificate, DisplayName: "Tax registration certificate", Required: true},
			{Type: AuthorizedSignatoryID, DisplayName: "Authorized signatory identification", Required: false},
		},
		model.AccountKindIndividual: {
			{Type: IdentityProof, DisplayName: "National identity card or passport", Required: true},
			{Type: AcademicTranscript, DisplayName: "Academic transcript", Required: true},
			{Type: CurriculumVitae, DisplayName: "Curriculum vitae", Required: false},
		},
	}}
}

type fileFormat struct {
	Kinds map[model.AccountKind][]Requirement `json:"kinds"`
}

// Load reads a catalog from a YAML file. Kinds missing from the file keep their
// default document list.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := Default()
	for kind, reqs := range f.Kinds {
		if !kind.Valid() {
			return nil, NewErrUnknownAccountKind(kind)
		}
		seen := make(map[model.DocumentType]struct{}, len(reqs))
		for _, r := range reqs {
			if r.Type == "" {
				return nil, fmt.Errorf("catalog entry for %s has an empty document type", kind)
			}
			if _, dup := seen[r.Type]; dup {
				return nil, fmt.Errorf("catalog entry for %s lists %s twice", kind, r.Type)
			}
			seen[r.Type] = struct{}{}
		}
		c.entries[kind] = append([]Requirement(nil), reqs...)
	}
	return c, nil
}

// RequiredDocuments returns the ordered document list for kind.
func (c *Catalog) RequiredDocuments(kind model.AccountKind) ([]Requirement, error) {
	reqs, ok := c.entries[kind]
	if !ok {
		return nil, NewErrUnknownAccountKind(kind)
	}
	return append([]Requirement(nil), reqs...), nil
}

// MustRequiredDocuments panics on an unknown kind.
func (c *Catalog) MustRequiredDocuments(kind model.AccountKind) []Requirement {
	reqs, err := c.RequiredDocuments(kind)
	if err != nil {
		panic(err)
	}
	return reqs
}

func (c *Catalog) Lookup(kind model.AccountKind, docType model.DocumentType) (Requirement, bool) {
	for _, r := range c.entries[kind] {
		if r.Type == docType {
			return r, true
		}
	}
	return Requirement{}, false
}

// Missing lists the required document types with no submission, in catalog order.
func (c *Catalog) Missing(kind model.AccountKind, docs model.DocumentList) ([]model.DocumentType, error) {
	reqs, err := c.RequiredDocuments(kind)
	if err != nil {
		return nil, err
	}
	latest := docs.LatestByType()
	missing := make([]model.DocumentType, 0)
	for _, r := range reqs {
		if !r.Required {
			continue
		}
		if _, ok := latest[r.Type]; !ok {
			missing = append(missing, r.Type)
		}
	}
	return missing, nil
}

func (c *Catalog) Satisfied(kind model.AccountKind, docs model.DocumentList) (bool, error) {
	missing, err := c.Missing(kind, docs)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}
