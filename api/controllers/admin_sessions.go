package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/api/responses"
	"github.com/tirehub/punchout-backend/api/validators"
	"github.com/tirehub/punchout-backend/internal/auditlog"
	"github.com/tirehub/punchout-backend/internal/items"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
	"github.com/tirehub/punchout-backend/pkg/pagination"
)

type sessionSummary struct {
	ID              string  `json:"id"`
	BuyerCookie     string  `json:"buyer_cookie"`
	PartnerIdentity string  `json:"partner_identity"`
	ClientType      string  `json:"client_type"`
	Status          string  `json:"status"`
	AddressID       string  `json:"address_id"`
	CorpAddressID   string  `json:"corp_address_id"`
	Email           string  `json:"email"`
	CustomerID      *string `json:"customer_id,omitempty"`
	TempPO          string  `json:"temppo,omitempty"`
	ERPOrderNumber  string  `json:"erp_order_number,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func newSessionSummary(session models.PunchoutSession) sessionSummary {
	summary := sessionSummary{
		ID:              session.ID.String(),
		BuyerCookie:     session.BuyerCookie,
		PartnerIdentity: session.PartnerIdentity,
		ClientType:      string(session.ClientType),
		Status:          string(session.Status),
		AddressID:       session.AddressID,
		CorpAddressID:   session.CorpAddressID,
		Email:           session.Email,
		TempPO:          session.TempPO,
		ERPOrderNumber:  session.ERPOrderNumber,
		CreatedAt:       session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       session.UpdatedAt.Format(time.RFC3339),
	}
	if session.CustomerID != nil {
		id := session.CustomerID.String()
		summary.CustomerID = &id
	}
	return summary
}

// AdminListSessions serves the session grid, newest first.
func AdminListSessions(svc *sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := pagination.ParseCursor(query.Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		listQuery := sessions.ListQuery{
			PartnerIdentity: strings.TrimSpace(query.Get("partner")),
			Limit:           limit,
			Cursor:          cursor,
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseSessionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			listQuery.Status = &status
		}

		rows, next, err := svc.List(r.Context(), listQuery)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries := make([]sessionSummary, len(rows))
		for i, row := range rows {
			summaries[i] = newSessionSummary(row)
		}
		payload := map[string]any{"sessions": summaries}
		if next != nil {
			payload["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

// AdminGetSession serves one session record.
func AdminGetSession(svc *sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromPath(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionSummary(*session))
	}
}

type sessionLogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// AdminSessionLogs serves the audit trail recorded for a session.
func AdminSessionLogs(svc *sessions.Service, audit *auditlog.Writer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromPath(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := audit.ListBySession(r.Context(), session.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session logs"))
			return
		}

		entries := make([]sessionLogEntry, len(rows))
		for i, row := range rows {
			entries[i] = sessionLogEntry{
				ID:        row.ID.String(),
				Level:     string(row.Level),
				Source:    row.Source,
				Message:   row.Message,
				Context:   row.Context,
				CreatedAt: row.CreatedAt.Format(time.RFC3339),
			}
		}
		responses.WriteSuccess(w, map[string]any{"logs": entries})
	}
}

type sessionItemEntry struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// AdminSessionItems serves the quick items parked for a session's
// buyer cookie.
func AdminSessionItems(svc *sessions.Service, repo items.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromPath(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.ByBuyerCookie(r.Context(), session.BuyerCookie)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session items"))
			return
		}

		entries := make([]sessionItemEntry, len(rows))
		for i, row := range rows {
			entries[i] = sessionItemEntry{
				ID:        row.ID.String(),
				SKU:       row.SKU,
				Quantity:  row.Quantity,
				Status:    string(row.Status),
				CreatedAt: row.CreatedAt.Format(time.RFC3339),
			}
		}
		responses.WriteSuccess(w, map[string]any{"items": entries})
	}
}

// AdminSessionCXML serves the raw setup document retained for a session
// when debug mode was on at intake.
func AdminSessionCXML(svc *sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromPath(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if session.CXMLRequest == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no raw document retained for this session"))
			return
		}
		responses.WriteCXML(w, http.StatusOK, session.CXMLRequest)
	}
}

func sessionFromPath(r *http.Request, svc *sessions.Service) (*models.PunchoutSession, error) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id")
	}
	return svc.GetByID(r.Context(), id)
}
