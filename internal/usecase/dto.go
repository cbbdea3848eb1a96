package usecase

import "github.com/xavierca1/leadgate/internal/entity"

type CaptureLeadInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	ChallengeAnswer *int   `json:"challenge_answer,omitempty"`
}

func (in CaptureLeadInput) Draft() entity.LeadDraft {
	return entity.LeadDraft{Name: in.Name, Email: in.Email, Phone: in.Phone, Company: in.Company}
}

type CaptureLeadOutput struct {
	Key    string           `json:"key"`
	State  entity.PageState `json:"state"`
	PDFURL string           `json:"pdf_url"`
}

type UpdateFlagsInput struct {
	Contacted      *bool `json:"contacted,omitempty"`
	ConvertedToCRM *bool `json:"converted_to_crm,omitempty"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ViewError is the error shown inline on the current page.
type ViewError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// PageView describes what the front-end should render for a session.
type PageView struct {
	State     entity.PageState  `json:"state"`
	Challenge *entity.Challenge `json:"challenge,omitempty"`
	PDFURL    string            `json:"pdf_url,omitempty"`
	Error     *ViewError        `json:"error,omitempty"`
	Leads     []entity.Lead     `json:"leads"`
	Stale     bool              `json:"stale,omitempty"`
}
