package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
)

type CaptureLeadUseCase struct {
	Repo             LeadRepository
	Notifier         Notifier
	Challenges       ChallengeSource
	Rules            IntakeRules
	ChallengeEnabled bool
	PDFURL           string
	Logger           *zap.Logger
	Now              func() time.Time
}

func NewCaptureLeadUseCase(
	repo LeadRepository,
	notifier Notifier,
	rules IntakeRules,
	challengeEnabled bool,
	pdfURL string,
	logger *zap.Logger,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Repo:             repo,
		Notifier:         notifier,
		Challenges:       RandomChallenges{},
		Rules:            rules,
		ChallengeEnabled: challengeEnabled,
		PDFURL:           pdfURL,
		Logger:           logger,
		Now:              time.Now,
	}
}

// View describes the session's current page, issuing a challenge for the intake form if needed.
func (uc *CaptureLeadUseCase) View(sess *entity.Session) PageView {
	view := PageView{State: sess.State}
	switch sess.State {
	case entity.StateIntake:
		if uc.ChallengeEnabled && sess.PendingChallenge == nil {
			c := uc.Challenges.NewChallenge()
			sess.PendingChallenge = &c
		}
		view.Challenge = sess.PendingChallenge
	case entity.StateSuccess:
		view.PDFURL = uc.PDFURL
	}
	return view
}

// Execute validates the submission, appends it, fires the notification and moves the
// session to the success page. On any error the session state is unchanged.
func (uc *CaptureLeadUseCase) Execute(ctx context.Context, sess *entity.Session, input CaptureLeadInput) (*CaptureLeadOutput, error) {
	if err := sess.CanSubmit(); err != nil {
		if errors.Is(err, entity.ErrAlreadySubmitted) {
			return nil, &DomainError{Code: CodeAlreadySubmitted, Message: "you have already submitted your details"}
		}
		return nil, &DomainError{Code: CodeInvalidTransition, Message: "the intake form is not open"}
	}

	var existing []entity.Lead
	if uc.Rules.DedupEnabled {
		leads, err := uc.Repo.LoadAll(ctx)
		if err != nil {
			return nil, storeError(err)
		}
		existing = leads
	}

	var expected *entity.Challenge
	if uc.ChallengeEnabled {
		if sess.PendingChallenge == nil {
			c := uc.Challenges.NewChallenge()
			sess.PendingChallenge = &c
		}
		expected = sess.PendingChallenge
	}

	lead, err := ValidateLeadDraft(input.Draft(), input.ChallengeAnswer, expected, existing, uc.Rules, uc.now())
	if err != nil {
		if ErrorCode(err) == CodeChallengeFailed {
			c := uc.Challenges.NewChallenge()
			sess.PendingChallenge = &c
		}
		uc.Logger.Debug("lead rejected", zap.String("code", ErrorCode(err)), zap.Error(err))
		return nil, err
	}

	var guard func([]entity.Lead) error
	if uc.Rules.DedupEnabled {
		guard = func(current []entity.Lead) error {
			return CheckDuplicate(lead, current)
		}
	}

	if err := uc.Repo.AppendIf(ctx, lead, guard); err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		uc.Logger.Error("failed to store lead", zap.Error(err))
		return nil, storeError(err)
	}

	uc.Logger.Info("lead captured", zap.String("key", lead.Key), zap.String("email", lead.Email))

	if uc.Notifier != nil {
		uc.Notifier.Notify(lead.Name, lead.Email)
	}

	if err := sess.SubmitSucceeded(); err != nil {
		return nil, &DomainError{Code: CodeInvalidTransition, Message: err.Error()}
	}

	return &CaptureLeadOutput{
		Key:    lead.Key,
		State:  sess.State,
		PDFURL: uc.PDFURL,
	}, nil
}

func (uc *CaptureLeadUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}

// RandomChallenges asks for the sum of two numbers between 1 and 10.
type RandomChallenges struct{}

func (RandomChallenges) NewChallenge() entity.Challenge {
	return entity.Challenge{A: rand.Intn(10) + 1, B: rand.Intn(10) + 1}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, entity.ErrReadCorrupted):
		return &TechnicalError{Code: CodeDataIntegrity, Message: "the lead store is corrupted", Err: err}
	case errors.Is(err, entity.ErrWriteFailed):
		return &TechnicalError{Code: CodeStoreWriteFailed, Message: "could not save, please try again", Err: err}
	case errors.Is(err, entity.ErrRecordNotFound), errors.Is(err, entity.ErrIndexOutOfRange):
		return &DomainError{Code: CodeStaleView, Message: "the lead list changed, reload and try again"}
	default:
		return &TechnicalError{Code: CodeStoreReadFailed, Message: "could not read the lead store", Err: err}
	}
}
