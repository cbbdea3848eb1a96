package entity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// TimestampLayout é o formato da coluna Timestamp no arquivo de leads.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	ErrWriteFailed     = errors.New("lead store write failed")
	ErrIndexOutOfRange = errors.New("lead index out of range")
	ErrRecordNotFound  = errors.New("lead not found")
	ErrReadCorrupted   = errors.New("lead store is corrupted")
)

// LeadNamespace is the namespace for name-based lead keys. Changing it changes every key.
var LeadNamespace = uuid.MustParse("6f1d3c2e-8a47-4b8e-9d0a-5c1e7f2b4a90")

type Lead struct {
	Key            string    `json:"key"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	CreatedAt      time.Time `json:"created_at"`
	Contacted      bool      `json:"contacted"`
	ConvertedToCRM bool      `json:"converted_to_crm"`
}

// LeadDraft is what the visitor typed into the form, before validation.
type LeadDraft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// LeadFilter restricts an admin listing. Nil flags match anything.
type LeadFilter struct {
	Query     string
	Contacted *bool
	Converted *bool
}

func (f LeadFilter) Match(l Lead) bool {
	if f.Contacted != nil && l.Contacted != *f.Contacted {
		return false
	}
	if f.Converted != nil && l.ConvertedToCRM != *f.Converted {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{l.Name, l.Email, l.Phone, l.Company} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

type LeadRepositoryInterface interface {
	Append(ctx context.Context, lead *Lead) error
	AppendIf(ctx context.Context, lead *Lead, guard func([]Lead) error) error
	LoadAll(ctx context.Context) ([]Lead, error)
	UpdateFlags(ctx context.Context, key string, contacted, converted *bool) error
	Delete(ctx context.Context, key string) error
	ExportCSV(ctx context.Context) ([]byte, error)
}

// NormalizeEmail is the form used for duplicate detection.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone removes every whitespace rune.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// BaseKey derives a key from the immutable fields only, so flag updates never change it.
func (l *Lead) BaseKey() uuid.UUID {
	parts := []string{l.Name, l.Email, l.Phone, l.Company, l.CreatedAt.Format(TimestampLayout)}
	return uuid.NewSHA1(LeadNamespace, []byte(strings.Join(parts, "\x1f")))
}

// AssignKeys sets Key on every lead. Identical twins are told apart by their ordinal among twins.
func AssignKeys(leads []Lead) {
	seen := make(map[uuid.UUID]int, len(leads))
	for i := range leads {
		base := leads[i].BaseKey()
		n := seen[base]
		seen[base] = n + 1
		if n == 0 {
			leads[i].Key = base.String()
			continue
		}
		leads[i].Key = uuid.NewSHA1(base, []byte(strconv.Itoa(n))).String()
	}
}
