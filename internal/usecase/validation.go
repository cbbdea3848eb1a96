package usecase

import (
	"net/mail"
	"strings"
	"time"

	"github.com/xavierca1/leadgate/internal/entity"
)

type IntakeRules struct {
	DedupEnabled     bool
	CheckEmailFormat bool
}

// ValidateLeadDraft checks a submission in a fixed order and reports the first failure:
// required fields, email format (if enabled), challenge (if one was issued), duplicates.
func ValidateLeadDraft(
	draft entity.LeadDraft,
	challengeAnswer *int,
	expected *entity.Challenge,
	existing []entity.Lead,
	rules IntakeRules,
	now time.Time,
) (*entity.Lead, error) {
	lead := &entity.Lead{
		Name:      strings.TrimSpace(draft.Name),
		Email:     strings.TrimSpace(draft.Email),
		Phone:     entity.NormalizePhone(draft.Phone),
		Company:   strings.TrimSpace(draft.Company),
		CreatedAt: now,
	}

	if lead.Name == "" {
		return nil, missingField("name")
	}
	if lead.Email == "" {
		return nil, missingField("email")
	}
	if lead.Phone == "" {
		return nil, missingField("phone")
	}

	if rules.CheckEmailFormat {
		if _, err := mail.ParseAddress(lead.Email); err != nil {
			return nil, &ValidationError{Code: CodeInvalidEmail, Field: "email", Message: "is invalid"}
		}
	}

	if expected != nil {
		if challengeAnswer == nil || *challengeAnswer != expected.Answer() {
			return nil, &ValidationError{
				Code:    CodeChallengeFailed,
				Field:   "challenge_answer",
				Message: "incorrect answer to the verification question",
			}
		}
	}

	if rules.DedupEnabled {
		if err := CheckDuplicate(lead, existing); err != nil {
			return nil, err
		}
	}

	return lead, nil
}

// CheckDuplicate fails if any existing lead shares the normalized email or phone.
func CheckDuplicate(lead *entity.Lead, existing []entity.Lead) error {
	email := entity.NormalizeEmail(lead.Email)
	phone := entity.NormalizePhone(lead.Phone)

	for _, e := range existing {
		if entity.NormalizeEmail(e.Email) == email {
			return &ValidationError{Code: CodeDuplicateContact, Field: "email", Message: "this email has already been registered"}
		}
		if entity.NormalizePhone(e.Phone) == phone {
			return &ValidationError{Code: CodeDuplicateContact, Field: "phone", Message: "this phone number has already been registered"}
		}
	}
	return nil
}

func missingField(field string) *ValidationError {
	return &ValidationError{Code: CodeMissingRequiredField, Field: field, Message: "is required"}
}
