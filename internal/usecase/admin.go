package usecase

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
)

// AdminUseCase drives the admin half of the page state machine and the dashboard actions.
// Credentials are compared in plain text; replace with a salted hash before real use.
type AdminUseCase struct {
	Repo     LeadRepository
	Username string
	Password string
	Logger   *zap.Logger
}

func NewAdminUseCase(repo LeadRepository, username, password string, logger *zap.Logger) *AdminUseCase {
	return &AdminUseCase{
		Repo:     repo,
		Username: username,
		Password: password,
		Logger:   logger,
	}
}

func (uc *AdminUseCase) RequestLogin(sess *entity.Session) error {
	if err := sess.RequestAdminLogin(); err != nil {
		return invalidTransition(err)
	}
	return nil
}

// Login returns INVALID_CREDENTIALS on mismatch; the session stays on the login prompt.
func (uc *AdminUseCase) Login(sess *entity.Session, input LoginInput) error {
	if sess.State != entity.StateAdminLogin {
		return invalidTransition(entity.ErrInvalidTransition)
	}

	ok := uc.credentialsMatch(input.Username, input.Password)
	if err := sess.Login(ok); err != nil {
		return invalidTransition(err)
	}
	if !ok {
		uc.Logger.Warn("admin login failed", zap.String("username", input.Username))
		return &DomainError{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	}

	uc.Logger.Info("admin logged in", zap.String("session", sess.ID))
	return nil
}

func (uc *AdminUseCase) CancelLogin(sess *entity.Session) error {
	if err := sess.CancelLogin(); err != nil {
		return invalidTransition(err)
	}
	return nil
}

func (uc *AdminUseCase) Logout(sess *entity.Session) error {
	if err := sess.Logout(); err != nil {
		return invalidTransition(err)
	}
	uc.Logger.Info("admin logged out", zap.String("session", sess.ID))
	return nil
}

func (uc *AdminUseCase) List(ctx context.Context, sess *entity.Session, filter entity.LeadFilter) ([]entity.Lead, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	leads, err := uc.Repo.LoadAll(ctx)
	if err != nil {
		uc.Logger.Error("failed to load leads", zap.Error(err))
		return nil, storeError(err)
	}

	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if filter.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (uc *AdminUseCase) UpdateFlags(ctx context.Context, sess *entity.Session, key string, input UpdateFlagsInput) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	if err := uc.Repo.UpdateFlags(ctx, key, input.Contacted, input.ConvertedToCRM); err != nil {
		uc.Logger.Warn("failed to update lead flags", zap.String("key", key), zap.Error(err))
		return storeError(err)
	}
	return nil
}

func (uc *AdminUseCase) Delete(ctx context.Context, sess *entity.Session, key string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	if err := uc.Repo.Delete(ctx, key); err != nil {
		uc.Logger.Warn("failed to delete lead", zap.String("key", key), zap.Error(err))
		return storeError(err)
	}
	uc.Logger.Info("lead deleted", zap.String("key", key))
	return nil
}

func (uc *AdminUseCase) Export(ctx context.Context, sess *entity.Session) ([]byte, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	data, err := uc.Repo.ExportCSV(ctx)
	if err != nil {
		uc.Logger.Error("failed to export leads", zap.Error(err))
		return nil, storeError(err)
	}
	return data, nil
}

func (uc *AdminUseCase) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(uc.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(uc.Password)) == 1
	return userOK && passOK && uc.Username != ""
}

func requireAdmin(sess *entity.Session) error {
	if !sess.IsAdmin() {
		return &DomainError{Code: CodeUnauthorized, Message: "admin login required"}
	}
	return nil
}

func invalidTransition(err error) error {
	return &DomainError{Code: CodeInvalidTransition, Message: err.Error()}
}
