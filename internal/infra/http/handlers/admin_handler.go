package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
	"github.com/xavierca1/leadgate/internal/infra/http/middleware"
	"github.com/xavierca1/leadgate/internal/usecase"
)

// Viewer renders the non-admin pages (intake with its challenge, success with the PDF link).
type Viewer interface {
	View(sess *entity.Session) usecase.PageView
}

type AdminHandler struct {
	uc       *usecase.AdminUseCase
	pages    Viewer
	sessions Sessions
	logger   *zap.Logger
}

func NewAdminHandler(uc *usecase.AdminUseCase, pages Viewer, s Sessions, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		uc:       uc,
		pages:    pages,
		sessions: s,
		logger:   logger.Named("admin-handler"),
	}
}

func (h *AdminHandler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	h.sessions.with(w, r, func(sess *entity.Session) {
		if err := h.uc.RequestLogin(sess); err != nil {
			h.writeView(w, sess, err)
			return
		}
		writeJSON(w, http.StatusOK, usecase.PageView{State: sess.State})
	})
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	input, err := decodeLoginInput(w, r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	h.sessions.with(w, r, func(sess *entity.Session) {
		if err := h.uc.Login(sess, input); err != nil {
			if usecase.ErrorCode(err) == usecase.CodeInvalidCredentials {
				middleware.RecordAdminLogin("failed")
			}
			h.writeView(w, sess, err)
			return
		}
		middleware.RecordAdminLogin("ok")
		h.writeLeads(w, r, sess, entity.LeadFilter{}, http.StatusOK, nil)
	})
}

func (h *AdminHandler) CancelLogin(w http.ResponseWriter, r *http.Request) {
	h.sessions.with(w, r, func(sess *entity.Session) {
		if err := h.uc.CancelLogin(sess); err != nil {
			h.writeView(w, sess, err)
			return
		}
		writeJSON(w, http.StatusOK, h.pages.View(sess))
	})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.with(w, r, func(sess *entity.Session) {
		if err := h.uc.Logout(sess); err != nil {
			h.writeView(w, sess, err)
			return
		}
		writeJSON(w, http.StatusOK, h.pages.View(sess))
	})
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}

	h.sessions.with(w, r, func(sess *entity.Session) {
		h.writeLeads(w, r, sess, filter, http.StatusOK, nil)
	})
}

func (h *AdminHandler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var input usecase.UpdateFlagsInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	h.sessions.with(w, r, func(sess *entity.Session) {
		err := h.uc.UpdateFlags(r.Context(), sess, key, input)
		h.afterMutation(w, r, sess, "update", err)
	})
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	h.sessions.with(w, r, func(sess *entity.Session) {
		err := h.uc.Delete(r.Context(), sess, key)
		h.afterMutation(w, r, sess, "delete", err)
	})
}

func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.sessions.with(w, r, func(sess *entity.Session) {
		data, err := h.uc.Export(r.Context(), sess)
		if err != nil {
			if usecase.IsTechnicalError(err) {
				middleware.RecordStoreError("export")
			}
			h.writeView(w, sess, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

// afterMutation answers with the refreshed list. A stale key gets a 409 with the fresh list so
// the dashboard can redraw before the admin retries.
func (h *AdminHandler) afterMutation(w http.ResponseWriter, r *http.Request, sess *entity.Session, op string, err error) {
	switch {
	case err == nil:
		h.writeLeads(w, r, sess, entity.LeadFilter{}, http.StatusOK, nil)
	case usecase.ErrorCode(err) == usecase.CodeStaleView:
		h.writeLeads(w, r, sess, entity.LeadFilter{}, http.StatusConflict, err)
	default:
		if usecase.IsTechnicalError(err) {
			middleware.RecordStoreError(op)
			h.logger.Error("admin action failed", zap.String("op", op), zap.Error(err))
		}
		h.writeView(w, sess, err)
	}
}

func (h *AdminHandler) writeLeads(w http.ResponseWriter, r *http.Request, sess *entity.Session, filter entity.LeadFilter, status int, cause error) {
	leads, err := h.uc.List(r.Context(), sess, filter)
	if err != nil {
		if usecase.IsTechnicalError(err) {
			middleware.RecordStoreError("load")
			h.logger.Error("failed to list leads", zap.Error(err))
		}
		h.writeView(w, sess, err)
		return
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	view := usecase.PageView{State: sess.State, Leads: leads}
	if cause != nil {
		view.Error = viewError(cause)
		view.Stale = usecase.ErrorCode(cause) == usecase.CodeStaleView
	}
	writeJSON(w, status, view)
}

func (h *AdminHandler) writeView(w http.ResponseWriter, sess *entity.Session, err error) {
	view := usecase.PageView{State: sess.State}
	if sess.State == entity.StateIntake || sess.State == entity.StateSuccess {
		view = h.pages.View(sess)
	}
	view.Error = viewError(err)
	writeJSON(w, statusFor(err), view)
}

func decodeLoginInput(w http.ResponseWriter, r *http.Request) (usecase.LoginInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input usecase.LoginInput
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&input)
		return input, err
	}
	if err := r.ParseForm(); err != nil {
		return input, err
	}
	input.Username = r.PostForm.Get("username")
	input.Password = r.PostForm.Get("password")
	return input, nil
}

func parseFilter(r *http.Request) (entity.LeadFilter, error) {
	q := r.URL.Query()
	filter := entity.LeadFilter{Query: q.Get("q")}

	var err error
	if filter.Contacted, err = optionalBool(q.Get("contacted")); err != nil {
		return filter, err
	}
	if filter.Converted, err = optionalBool(q.Get("converted")); err != nil {
		return filter, err
	}
	return filter, nil
}

func optionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
