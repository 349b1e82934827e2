package punchout

import (
	"context"
	"net/http"
	"time"

	"github.com/tirehub/punchout-backend/internal/customers"
	"github.com/tirehub/punchout-backend/internal/cxml"
	"github.com/tirehub/punchout-backend/internal/partners"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// SetupResult carries the rendered cXML response for a setup request.
type SetupResult struct {
	XML        string
	HTTPStatus int
}

// ProcessSetup handles an inbound PunchOutSetupRequest end to end. It
// always renders a cXML response; protocol failures are reported inside
// the document rather than as Go errors.
func (s *Service) ProcessSetup(ctx context.Context, raw []byte) SetupResult {
	started := time.Now()
	partnerLabel := ""

	result, session, err := s.processSetup(ctx, raw, &partnerLabel)
	s.metrics.ObserveSetupDuration(partnerLabel, time.Since(started))
	if err != nil {
		s.metrics.IncSetup(partnerLabel, "error")
		return s.setupError(ctx, session, err)
	}
	s.metrics.IncSetup(partnerLabel, "success")
	return result
}

func (s *Service) processSetup(ctx context.Context, raw []byte, partnerLabel *string) (SetupResult, *models.PunchoutSession, error) {
	request, err := cxml.ParseSetupRequest(raw)
	if err != nil {
		return SetupResult{}, nil, err
	}

	partner, err := s.partners.ValidateCredentials(ctx, request.Sender.Domain, request.Sender.Identity, request.Sender.SharedSecret)
	if err != nil {
		return SetupResult{}, nil, err
	}
	*partnerLabel = partner.Identity
	ctx = s.logContext(ctx, request.BuyerCookie, partner.Identity)

	params := beginParamsFromRequest(request, partner)
	if s.flags.DebugMode {
		// Raw document retention for partner onboarding triage.
		params.CXMLRequest = string(raw)
	}

	session, err := s.sessions.Begin(ctx, params)
	if err != nil {
		return SetupResult{}, nil, err
	}
	s.auditInfo(ctx, session, "setup", "session opened", map[string]any{
		"payload_id": request.PayloadID,
		"address_id": request.AddressID,
	})

	// No ship-to address on the request: detour the buyer through the
	// portal so they can pick a location.
	if request.AddressID == "" {
		handoff, err := s.tokens.Issue(ctx, session.BuyerCookie)
		if err != nil {
			return SetupResult{}, session, err
		}
		s.auditInfo(ctx, session, "setup", "redirecting to address portal", nil)
		return s.setupSuccess(session, s.cfg.PortalURL(handoff))
	}

	locationID, err := s.resolver.Resolve(ctx, request.AddressID, partner.Identity)
	if err != nil {
		return SetupResult{}, session, err
	}
	if partner.CorpAddressID != "" {
		if err := s.resolver.Authorize(ctx, locationID, partner.CorpAddressID); err != nil {
			return SetupResult{}, session, err
		}
	}

	customer, err := s.customers.Provision(ctx, customerParams(session, locationID, partner))
	if err != nil {
		return SetupResult{}, session, err
	}
	if err := s.sessions.SetCustomer(ctx, session, customer.ID, locationID); err != nil {
		return SetupResult{}, session, err
	}
	s.auditInfo(ctx, session, "setup", "customer bound to session", map[string]any{
		"customer_id": customer.ID.String(),
		"location_id": locationID,
	})

	handoff, err := s.tokens.Issue(ctx, session.BuyerCookie)
	if err != nil {
		return SetupResult{}, session, err
	}
	return s.setupSuccess(session, s.cfg.StartPageURL(handoff))
}

func (s *Service) setupSuccess(session *models.PunchoutSession, startURL string) (SetupResult, *models.PunchoutSession, error) {
	doc, err := cxml.SuccessResponse(startURL)
	if err != nil {
		return SetupResult{}, session, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render setup response")
	}
	return SetupResult{XML: doc, HTTPStatus: http.StatusOK}, session, nil
}

// setupError renders the typed error as a cXML Status document and
// records it against the session when one was opened.
func (s *Service) setupError(ctx context.Context, session *models.PunchoutSession, err error) SetupResult {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setup failed")
	}
	status, text := typed.CXMLStatus()

	if s.logg != nil {
		s.logg.Error(ctx, "punchout setup rejected", err)
	}
	// The session stays NEW so the partner can fix their request and
	// resubmit the same buyer cookie. Only post-provisioning business
	// failures park a session in the error state.
	if session != nil {
		s.auditError(ctx, session, "setup", typed.Error(), map[string]any{
			"status": status,
		})
	}

	doc, renderErr := cxml.ErrorResponse(status, text)
	if renderErr != nil {
		return SetupResult{XML: "", HTTPStatus: http.StatusInternalServerError}
	}
	return SetupResult{XML: doc, HTTPStatus: status}
}

func beginParamsFromRequest(request *cxml.SetupRequest, partner *partners.Partner) sessions.BeginParams {
	return sessions.BeginParams{
		BuyerCookie:        request.BuyerCookie,
		PartnerIdentity:    partner.Identity,
		ClientType:         enums.ClientTypeCXML,
		CorpAddressID:      partner.CorpAddressID,
		AddressID:          request.AddressID,
		FullName:           request.Extrinsic("UserFullName"),
		FirstName:          request.Extrinsic("FirstName"),
		LastName:           request.Extrinsic("LastName"),
		Email:              request.Extrinsic("UserEmail"),
		Phone:              request.Extrinsic("PhoneNumber"),
		BrowserFormPostURL: request.BrowserFormPostURL,
	}
}

func customerParams(session *models.PunchoutSession, locationID string, partner *partners.Partner) customers.ProvisionParams {
	return customers.ProvisionParams{
		DealerCode:    locationID,
		CorpAddressID: partner.CorpAddressID,
		FirstName:     session.FirstName,
		LastName:      session.LastName,
	}
}
