package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadgate/internal/entity"
)

var validationNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

func validDraft() entity.LeadDraft {
	return entity.LeadDraft{Name: "Jane Doe", Email: "jane@x.com", Phone: "07700900000"}
}

func TestValidateLeadDraftSuccess(t *testing.T) {
	draft := entity.LeadDraft{Name: "  Jane Doe ", Email: " jane@x.com", Phone: "07700 900 000", Company: " Acme "}

	lead, err := ValidateLeadDraft(draft, nil, nil, nil, IntakeRules{DedupEnabled: true}, validationNow)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "jane@x.com", lead.Email)
	assert.Equal(t, "07700900000", lead.Phone)
	assert.Equal(t, "Acme", lead.Company)
	assert.Equal(t, validationNow, lead.CreatedAt)
	assert.False(t, lead.Contacted)
	assert.False(t, lead.ConvertedToCRM)
}

func TestValidateLeadDraftMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		draft entity.LeadDraft
		field string
	}{
		{"no name", entity.LeadDraft{Email: "a@x.com", Phone: "1"}, "name"},
		{"blank name", entity.LeadDraft{Name: "   ", Email: "a@x.com", Phone: "1"}, "name"},
		{"no email", entity.LeadDraft{Name: "A", Phone: "1"}, "email"},
		{"blank phone", entity.LeadDraft{Name: "A", Email: "a@x.com", Phone: " \t "}, "phone"},
		{"everything missing", entity.LeadDraft{}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateLeadDraft(tt.draft, nil, nil, nil, IntakeRules{}, validationNow)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, CodeMissingRequiredField, ve.Code)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateLeadDraftChallenge(t *testing.T) {
	challenge := &entity.Challenge{A: 3, B: 4}

	_, err := ValidateLeadDraft(validDraft(), intPtr(7), challenge, nil, IntakeRules{}, validationNow)
	assert.NoError(t, err)

	_, err = ValidateLeadDraft(validDraft(), intPtr(8), challenge, nil, IntakeRules{}, validationNow)
	assert.Equal(t, CodeChallengeFailed, ErrorCode(err))

	_, err = ValidateLeadDraft(validDraft(), nil, challenge, nil, IntakeRules{}, validationNow)
	assert.Equal(t, CodeChallengeFailed, ErrorCode(err))
}

func TestValidateLeadDraftOrder(t *testing.T) {
	existing := []entity.Lead{{Name: "Jane", Email: "jane@x.com", Phone: "1"}}
	challenge := &entity.Challenge{A: 1, B: 1}

	// missing field wins over a wrong challenge
	_, err := ValidateLeadDraft(entity.LeadDraft{Email: "jane@x.com"}, intPtr(0), challenge, existing, IntakeRules{DedupEnabled: true}, validationNow)
	assert.Equal(t, CodeMissingRequiredField, ErrorCode(err))

	// wrong challenge wins over a duplicate
	_, err = ValidateLeadDraft(validDraft(), intPtr(0), challenge, existing, IntakeRules{DedupEnabled: true}, validationNow)
	assert.Equal(t, CodeChallengeFailed, ErrorCode(err))
}

func TestValidateLeadDraftDuplicates(t *testing.T) {
	existing := []entity.Lead{{Name: "Jane", Email: "jane@x.com", Phone: "07700900000"}}

	t.Run("same email", func(t *testing.T) {
		_, err := ValidateLeadDraft(validDraft(), nil, nil, existing, IntakeRules{DedupEnabled: true}, validationNow)
		assert.Equal(t, CodeDuplicateContact, ErrorCode(err))
	})

	t.Run("email in another case", func(t *testing.T) {
		draft := entity.LeadDraft{Name: "J", Email: "JANE@X.COM", Phone: "123"}
		_, err := ValidateLeadDraft(draft, nil, nil, existing, IntakeRules{DedupEnabled: true}, validationNow)
		assert.Equal(t, CodeDuplicateContact, ErrorCode(err))
	})

	t.Run("phone with spaces", func(t *testing.T) {
		draft := entity.LeadDraft{Name: "J", Email: "other@x.com", Phone: "07700 900000"}
		_, err := ValidateLeadDraft(draft, nil, nil, existing, IntakeRules{DedupEnabled: true}, validationNow)
		assert.Equal(t, CodeDuplicateContact, ErrorCode(err))
	})

	t.Run("dedup disabled", func(t *testing.T) {
		_, err := ValidateLeadDraft(validDraft(), nil, nil, existing, IntakeRules{}, validationNow)
		assert.NoError(t, err)
	})
}

func TestValidateLeadDraftEmailFormat(t *testing.T) {
	draft := entity.LeadDraft{Name: "J", Email: "not-an-email", Phone: "1"}

	_, err := ValidateLeadDraft(draft, nil, nil, nil, IntakeRules{}, validationNow)
	assert.NoError(t, err)

	_, err = ValidateLeadDraft(draft, nil, nil, nil, IntakeRules{CheckEmailFormat: true}, validationNow)
	assert.Equal(t, CodeInvalidEmail, ErrorCode(err))
}
