package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
)

const testPDFURL = "https://cdn.example.com/guide.pdf"

func newCaptureUC(repo *MockLeadRepository, notifier *MockNotifier, rules IntakeRules, challenge bool) *CaptureLeadUseCase {
	uc := NewCaptureLeadUseCase(repo, notifier, rules, challenge, testPDFURL, zap.NewNop())
	uc.Challenges = &fixedChallenges{next: []entity.Challenge{{A: 2, B: 3}, {A: 4, B: 4}}}
	uc.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local) }
	return uc
}

func janeInput() CaptureLeadInput {
	return CaptureLeadInput{Name: "Jane Doe", Email: "jane@x.com", Phone: "07700900000"}
}

func TestCaptureLeadSuccess(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("AppendIf", mock.Anything, mock.AnythingOfType("*entity.Lead"), mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.Lead).Key = "lead-1"
		}).
		Return(nil)
	notifier.On("Notify", "Jane Doe", "jane@x.com").Return()

	uc := newCaptureUC(repo, notifier, IntakeRules{}, false)
	sess := entity.NewSession("s1")

	out, err := uc.Execute(context.Background(), sess, janeInput())

	require.NoError(t, err)
	assert.Equal(t, "lead-1", out.Key)
	assert.Equal(t, entity.StateSuccess, out.State)
	assert.Equal(t, testPDFURL, out.PDFURL)
	assert.Equal(t, entity.StateSuccess, sess.State)
	assert.True(t, sess.HasSubmitted)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
	repo.AssertNotCalled(t, "LoadAll", mock.Anything)

	stored := repo.Calls[0].Arguments.Get(1).(*entity.Lead)
	assert.Equal(t, "Jane Doe", stored.Name)
	assert.False(t, stored.Contacted)
}

func TestCaptureLeadSuccessIsSticky(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("AppendIf", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return()

	uc := newCaptureUC(repo, notifier, IntakeRules{}, false)
	sess := entity.NewSession("s1")
	_, err := uc.Execute(context.Background(), sess, janeInput())
	require.NoError(t, err)

	view := uc.View(sess)
	assert.Equal(t, entity.StateSuccess, view.State)
	assert.Equal(t, testPDFURL, view.PDFURL)

	_, err = uc.Execute(context.Background(), sess, janeInput())
	assert.Equal(t, CodeAlreadySubmitted, ErrorCode(err))
	repo.AssertNumberOfCalls(t, "AppendIf", 1)
}

func TestCaptureLeadValidationFailureKeepsIntake(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)

	uc := newCaptureUC(repo, notifier, IntakeRules{}, false)
	sess := entity.NewSession("s1")

	_, err := uc.Execute(context.Background(), sess, CaptureLeadInput{Name: "Jane"})

	assert.Equal(t, CodeMissingRequiredField, ErrorCode(err))
	assert.Equal(t, entity.StateIntake, sess.State)
	repo.AssertNotCalled(t, "AppendIf", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCaptureLeadDuplicate(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("LoadAll", mock.Anything).Return([]entity.Lead{{Name: "Jane", Email: "jane@x.com", Phone: "1"}}, nil)

	uc := newCaptureUC(repo, notifier, IntakeRules{DedupEnabled: true}, false)
	sess := entity.NewSession("s1")

	_, err := uc.Execute(context.Background(), sess, janeInput())

	assert.Equal(t, CodeDuplicateContact, ErrorCode(err))
	assert.Equal(t, entity.StateIntake, sess.State)
	repo.AssertNotCalled(t, "AppendIf", mock.Anything, mock.Anything, mock.Anything)
}

func TestCaptureLeadDuplicateCaughtByGuard(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("LoadAll", mock.Anything).Return([]entity.Lead{}, nil)
	repo.On("AppendIf", mock.Anything, mock.Anything, mock.Anything).
		Return(&ValidationError{Code: CodeDuplicateContact, Field: "email", Message: "dup"})

	uc := newCaptureUC(repo, notifier, IntakeRules{DedupEnabled: true}, false)
	sess := entity.NewSession("s1")

	_, err := uc.Execute(context.Background(), sess, janeInput())

	assert.Equal(t, CodeDuplicateContact, ErrorCode(err))
	assert.Equal(t, entity.StateIntake, sess.State)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCaptureLeadGuardRejectsConcurrentDuplicate(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("LoadAll", mock.Anything).Return([]entity.Lead{}, nil)

	var guardErr error
	repo.On("AppendIf", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			guard := args.Get(2).(func([]entity.Lead) error)
			guardErr = guard([]entity.Lead{{Email: "JANE@x.com", Phone: "9"}})
		}).
		Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return()

	uc := newCaptureUC(repo, notifier, IntakeRules{DedupEnabled: true}, false)
	_, err := uc.Execute(context.Background(), entity.NewSession("s1"), janeInput())

	require.NoError(t, err)
	assert.Equal(t, CodeDuplicateContact, ErrorCode(guardErr))
}

func TestCaptureLeadStoreWriteFailed(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("AppendIf", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: disk full", entity.ErrWriteFailed))

	uc := newCaptureUC(repo, notifier, IntakeRules{}, false)
	sess := entity.NewSession("s1")

	_, err := uc.Execute(context.Background(), sess, janeInput())

	assert.True(t, IsTechnicalError(err))
	assert.Equal(t, CodeStoreWriteFailed, ErrorCode(err))
	assert.ErrorIs(t, err, entity.ErrWriteFailed)
	assert.Equal(t, entity.StateIntake, sess.State)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCaptureLeadCorruptedStore(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("LoadAll", mock.Anything).Return(nil, fmt.Errorf("%w: line 3", entity.ErrReadCorrupted))

	uc := newCaptureUC(repo, new(MockNotifier), IntakeRules{DedupEnabled: true}, false)

	_, err := uc.Execute(context.Background(), entity.NewSession("s1"), janeInput())

	assert.Equal(t, CodeDataIntegrity, ErrorCode(err))
}

func TestCaptureLeadChallenge(t *testing.T) {
	repo := new(MockLeadRepository)
	notifier := new(MockNotifier)
	repo.On("AppendIf", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return()

	uc := newCaptureUC(repo, notifier, IntakeRules{}, true)
	sess := entity.NewSession("s1")

	view := uc.View(sess)
	require.NotNil(t, view.Challenge)
	assert.Equal(t, entity.Challenge{A: 2, B: 3}, *view.Challenge)

	in := janeInput()
	in.ChallengeAnswer = intPtr(6)
	_, err := uc.Execute(context.Background(), sess, in)
	assert.Equal(t, CodeChallengeFailed, ErrorCode(err))
	require.NotNil(t, sess.PendingChallenge)
	assert.Equal(t, entity.Challenge{A: 4, B: 4}, *sess.PendingChallenge, "a failed answer rotates the challenge")

	in.ChallengeAnswer = intPtr(8)
	_, err = uc.Execute(context.Background(), sess, in)
	require.NoError(t, err)
	assert.Nil(t, sess.PendingChallenge)
	assert.Equal(t, entity.StateSuccess, sess.State)
}
