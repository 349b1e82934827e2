package punchout

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/internal/carts"
	"github.com/tirehub/punchout-backend/internal/customers"
	"github.com/tirehub/punchout-backend/internal/dealers"
	"github.com/tirehub/punchout-backend/internal/inventory"
	"github.com/tirehub/punchout-backend/internal/items"
	"github.com/tirehub/punchout-backend/internal/partners"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

const setupRequestTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE cXML SYSTEM "http://xml.cXML.org/schemas/cXML/1.2.041/cXML.dtd">
<cXML payloadID="933694607739@acme.com" timestamp="2025-06-10T13:34:45-07:00">
  <Header>
    <From>
      <Credential domain="DUNS">
        <Identity>04-277-2155</Identity>
      </Credential>
    </From>
    <To>
      <Credential domain="DUNS">
        <Identity>08-125-4817</Identity>
      </Credential>
    </To>
    <Sender>
      <Credential domain="DUNS">
        <Identity>04-277-2155</Identity>
        <SharedSecret>%s</SharedSecret>
      </Credential>
      <UserAgent>Acme Procurement 9.1</UserAgent>
    </Sender>
  </Header>
  <Request deploymentMode="production">
    <PunchOutSetupRequest operation="create">
      <BuyerCookie>%s</BuyerCookie>
      <Extrinsic name="UserEmail">buyer@acme.com</Extrinsic>
      <Extrinsic name="FirstName">Pat</Extrinsic>
      <Extrinsic name="LastName">Jones</Extrinsic>
      <BrowserFormPost>
        <URL>https://acme.example.com/punchout/return</URL>
      </BrowserFormPost>
      %s
    </PunchOutSetupRequest>
  </Request>
</cXML>`

const shipToFragment = `<ShipTo><Address addressID="0012345"><Name xml:lang="en">Acme Store</Name></Address></ShipTo>`

func setupRequestDoc(secret, cookie, shipTo string) []byte {
	return []byte(fmt.Sprintf(setupRequestTemplate, secret, cookie, shipTo))
}

type fixedDirectory struct {
	partner *partners.Partner
}

func (f *fixedDirectory) ValidateCredentials(ctx context.Context, domain, identity, sharedSecret string) (*partners.Partner, error) {
	if f.partner == nil || !strings.EqualFold(f.partner.Domain, domain) || !strings.EqualFold(f.partner.Identity, identity) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, "no identity match")
	}
	if f.partner.SharedSecret != sharedSecret {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSharedSecret, "shared secret mismatch")
	}
	return f.partner, nil
}

func (f *fixedDirectory) ByIdentity(ctx context.Context, identity string) (*partners.Partner, error) {
	if f.partner != nil && strings.EqualFold(f.partner.Identity, identity) {
		return f.partner, nil
	}
	return nil, nil
}

func (f *fixedDirectory) ByCorpAddressID(ctx context.Context, corpAddressID string) (*partners.Partner, error) {
	if f.partner != nil && f.partner.CorpAddressID == corpAddressID {
		return f.partner, nil
	}
	return nil, nil
}

type stubResolver struct {
	locations map[string]string
	common    map[string]bool
}

func (r *stubResolver) Format(ctx context.Context, addressID, senderIdentity string) (string, error) {
	return addressID, nil
}

func (r *stubResolver) Resolve(ctx context.Context, addressID, senderIdentity string) (string, error) {
	if location, ok := r.locations[addressID]; ok {
		return location, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeDealerNotFound, "no ship-to match").WithWireArg(addressID)
}

func (r *stubResolver) Authorize(ctx context.Context, locationID, corpAddressID string) error {
	if r.common[locationID] {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeDealerUnauthorized, "location not in group").WithWireArg(locationID)
}

type stubDealerLookup struct {
	results []dealers.Dealer
}

func (d *stubDealerLookup) LookupCommon(ctx context.Context, dealerCode string) ([]dealers.Dealer, error) {
	return d.results, nil
}

type stubInventory struct {
	locations map[string][]inventory.Location
}

func (i *stubInventory) Lookup(ctx context.Context, params inventory.LookupParams) ([]inventory.Location, error) {
	return i.locations[params.SKU], nil
}

type stubTokens struct{}

func (stubTokens) Issue(ctx context.Context, buyerCookie string) (string, error) {
	return "tok-" + buyerCookie, nil
}

func (stubTokens) Redeem(ctx context.Context, token string) (string, error) {
	if cookie, ok := strings.CutPrefix(token, "tok-"); ok {
		return cookie, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "bad token")
}

type stubStorefront struct {
	logins      int
	disabled    int
	logouts     int
	marked      int
	lastSession uuid.UUID
}

func (s *stubStorefront) Login(ctx context.Context, session *models.PunchoutSession, customerID uuid.UUID) (string, error) {
	s.logins++
	s.lastSession = session.ID
	return "jwt-" + customerID.String(), nil
}

func (s *stubStorefront) DisablePunchoutMode(ctx context.Context, customerID uuid.UUID) error {
	s.disabled++
	return nil
}

func (s *stubStorefront) Logout(ctx context.Context, sessionID, customerID uuid.UUID) error {
	s.logouts++
	return nil
}

func (s *stubStorefront) MarkPendingItems(ctx context.Context, customerID uuid.UUID) error {
	s.marked++
	return nil
}

type harness struct {
	svc        *Service
	conn       *gorm.DB
	resolver   *stubResolver
	storefront *stubStorefront
	items      items.Repository
	carts      *carts.Service
	sessions   *sessions.Service
}

func acmePartner() *partners.Partner {
	return &partners.Partner{
		Domain:              "DUNS",
		Identity:            "04-277-2155",
		SharedSecret:        "hunter2",
		CorpAddressID:       "9001",
		PunchoutRedirectURL: "https://acme.example.com/punchout",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	tables := []any{
		&models.PunchoutSession{},
		&models.PunchoutItem{},
		&models.PunchoutCustomer{},
		&models.PunchoutCart{},
		&models.PunchoutCartLine{},
		&models.PunchoutLog{},
	}
	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sessionSvc, err := sessions.NewService(sessions.ServiceParams{Repo: sessions.NewRepository(conn)})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	customerSvc, err := customers.NewService(customers.ServiceParams{Repo: customers.NewRepository(conn)})
	if err != nil {
		t.Fatalf("customers: %v", err)
	}
	cartSvc, err := carts.NewService(carts.ServiceParams{Repo: carts.NewRepository(conn)})
	if err != nil {
		t.Fatalf("carts: %v", err)
	}
	itemRepo := items.NewRepository(conn)

	resolver := &stubResolver{
		locations: map[string]string{"0012345": "ST-0123"},
		common:    map[string]bool{"ST-0123": true},
	}
	sf := &stubStorefront{}

	svc, err := NewService(ServiceParams{
		Sessions:   sessionSvc,
		Items:      itemRepo,
		Customers:  customerSvc,
		Carts:      cartSvc,
		Partners:   &fixedDirectory{partner: acmePartner()},
		Resolver:   resolver,
		Dealers: &stubDealerLookup{results: []dealers.Dealer{
			{DealerCode: "ST-0123", ShipToLocation: dealers.ShipToLocation{LocationName: "Main Street Tire"}},
			{DealerCode: "ST-0456", ShipToLocation: dealers.ShipToLocation{LocationName: "North Depot"}},
		}},
		Inventory: &stubInventory{locations: map[string][]inventory.Location{
			"TH-205-55R16": {
				{SKU: "TH-205-55R16", LocationID: "DC-01", QuantityAvailable: 2, UnitPrice: decimal.RequireFromString("128.10"), Description: "205/55R16 All Season"},
				{SKU: "TH-205-55R16", LocationID: "DC-02", QuantityAvailable: 9, UnitPrice: decimal.RequireFromString("128.10"), Description: "205/55R16 All Season"},
			},
		}},
		Storefront: sf,
		Tokens:     stubTokens{},
		Config: config.StorefrontConfig{
			BaseURL:       "https://shop.tirehub.test",
			StartPagePath: "/punchout/shopping/start",
			PortalPath:    "/punchout/portal",
		},
		Token: config.TokenConfig{AllowLegacy: true},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &harness{
		svc:        svc,
		conn:       conn,
		resolver:   resolver,
		storefront: sf,
		items:      itemRepo,
		carts:      cartSvc,
		sessions:   sessionSvc,
	}
}

func TestProcessSetupWithAddress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-1", shipToFragment))
	if result.HTTPStatus != 200 {
		t.Fatalf("expected 200, got %d: %s", result.HTTPStatus, result.XML)
	}
	if !strings.Contains(result.XML, `code="200"`) || !strings.Contains(result.XML, "success") {
		t.Fatalf("expected success status, got %s", result.XML)
	}
	if !strings.Contains(result.XML, "https://shop.tirehub.test/punchout/shopping/start?token=tok-cookie-1") {
		t.Fatalf("expected start page URL, got %s", result.XML)
	}

	session, err := h.sessions.Get(ctx, "cookie-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.CustomerID == nil {
		t.Fatal("expected provisioned customer on session")
	}
	if session.AddressID != "ST-0123" {
		t.Fatalf("expected resolved address, got %q", session.AddressID)
	}
	if session.Email != "buyer@acme.com" || session.FirstName != "Pat" {
		t.Fatalf("unexpected extrinsics %+v", session)
	}
}

func TestProcessSetupPortalDetour(t *testing.T) {
	h := newHarness(t)

	result := h.svc.ProcessSetup(context.Background(), setupRequestDoc("hunter2", "cookie-2", ""))
	if result.HTTPStatus != 200 {
		t.Fatalf("expected 200, got %d: %s", result.HTTPStatus, result.XML)
	}
	if !strings.Contains(result.XML, "https://shop.tirehub.test/punchout/portal?token=tok-cookie-2") {
		t.Fatalf("expected portal URL, got %s", result.XML)
	}
}

func TestProcessSetupInvalidSecret(t *testing.T) {
	h := newHarness(t)

	result := h.svc.ProcessSetup(context.Background(), setupRequestDoc("wrong", "cookie-3", shipToFragment))
	if result.HTTPStatus != 401 {
		t.Fatalf("expected 401, got %d", result.HTTPStatus)
	}
	if !strings.Contains(result.XML, "Invalid shared secret!") {
		t.Fatalf("expected shared secret status text, got %s", result.XML)
	}
}

func TestProcessSetupMalformedDocument(t *testing.T) {
	h := newHarness(t)

	result := h.svc.ProcessSetup(context.Background(), []byte("this is not cxml"))
	if result.HTTPStatus != 500 {
		t.Fatalf("expected 500, got %d", result.HTTPStatus)
	}
	if !strings.Contains(result.XML, "not in a known format") {
		t.Fatalf("expected malformed status text, got %s", result.XML)
	}
}

func TestProcessSetupCookieReuse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-4", shipToFragment))
	if first.HTTPStatus != 200 {
		t.Fatalf("setup failed: %s", first.XML)
	}
	if _, err := h.svc.ActivateShopping(ctx, "tok-cookie-4"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	second := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-4", shipToFragment))
	if second.HTTPStatus != 403 {
		t.Fatalf("expected 403, got %d: %s", second.HTTPStatus, second.XML)
	}
	if !strings.Contains(second.XML, "Security violation") {
		t.Fatalf("expected security violation text, got %s", second.XML)
	}
}

func TestProcessSetupUnknownDealer(t *testing.T) {
	h := newHarness(t)

	doc := setupRequestDoc("hunter2", "cookie-5", `<ShipTo><Address addressID="9999999"><Name xml:lang="en">Ghost</Name></Address></ShipTo>`)
	result := h.svc.ProcessSetup(context.Background(), doc)
	if result.HTTPStatus != 400 {
		t.Fatalf("expected 400, got %d", result.HTTPStatus)
	}
	if !strings.Contains(result.XML, "Unable to match requested address id 9999999") {
		t.Fatalf("expected dealer status text, got %s", result.XML)
	}

	session, err := h.sessions.Get(context.Background(), "cookie-5")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Status != enums.SessionStatusNew {
		t.Fatalf("expected session to stay new for retry, got %s", session.Status)
	}

	// The partner corrects the address id and resubmits the same buyer
	// cookie; the session is still retryable.
	retry := h.svc.ProcessSetup(context.Background(), setupRequestDoc("hunter2", "cookie-5", shipToFragment))
	if retry.HTTPStatus != 200 {
		t.Fatalf("expected retry to succeed, got %d: %s", retry.HTTPStatus, retry.XML)
	}
	session, err = h.sessions.Get(context.Background(), "cookie-5")
	if err != nil {
		t.Fatalf("get session after retry: %v", err)
	}
	if session.CustomerID == nil {
		t.Fatal("expected customer bound after retry")
	}
}

func TestQuickItemsAndActivation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	quick, err := h.svc.QuickItems(ctx, QuickItemParams{
		PartnerIdentity: "04-277-2155",
		DealerCode:      "0012345",
		SKUs:            "TH-205-55R16,GHOST-SKU",
		Quantity:        4,
	})
	if err != nil {
		t.Fatalf("quick items: %v", err)
	}
	if quick.BuyerCookie == "" {
		t.Fatal("expected buyer cookie")
	}

	session, err := h.sessions.Get(ctx, quick.BuyerCookie)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.ClientType != enums.ClientTypeQuick {
		t.Fatalf("expected quick client type, got %s", session.ClientType)
	}
	if session.AddressID != "ST-0123" {
		t.Fatalf("expected resolved dealer on session, got %q", session.AddressID)
	}
	if quick.RedirectURL != "https://acme.example.com/punchout?cookie="+quick.BuyerCookie {
		t.Fatalf("unexpected redirect %q", quick.RedirectURL)
	}

	pending, err := h.items.PendingByBuyerCookie(ctx, quick.BuyerCookie)
	if err != nil {
		t.Fatalf("pending items: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 parked items, got %d", len(pending))
	}
	if pending[0].SKU != "TH-205-55R16" || pending[0].Quantity != 4 {
		t.Fatalf("unexpected first item %+v", pending[0])
	}
	for _, item := range pending {
		if item.PartnerIdentity != "04-277-2155" {
			t.Fatalf("expected partner identity on item, got %q", item.PartnerIdentity)
		}
		if item.DealerCode != "ST-0123" {
			t.Fatalf("expected resolved dealer code on item, got %q", item.DealerCode)
		}
	}
}

func TestActivateShoppingFulfillsItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	setup := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-6", shipToFragment))
	if setup.HTTPStatus != 200 {
		t.Fatalf("setup failed: %s", setup.XML)
	}
	for _, sku := range []string{"TH-205-55R16", "GHOST-SKU"} {
		if err := h.items.Create(ctx, &models.PunchoutItem{BuyerCookie: "cookie-6", SKU: sku, Quantity: 4}); err != nil {
			t.Fatalf("park item: %v", err)
		}
	}

	result, err := h.svc.ActivateShopping(ctx, "tok-cookie-6")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if result.LoginToken == "" {
		t.Fatal("expected login token")
	}
	if result.ItemsFulfilled != 1 || result.ItemsFailed != 1 {
		t.Fatalf("expected 1 fulfilled / 1 failed, got %d / %d", result.ItemsFulfilled, result.ItemsFailed)
	}
	if result.Session.Status != enums.SessionStatusActive {
		t.Fatalf("expected active session, got %s", result.Session.Status)
	}
	if h.storefront.logins != 1 {
		t.Fatalf("expected 1 storefront login, got %d", h.storefront.logins)
	}
	if h.storefront.marked != 1 {
		t.Fatalf("expected pending-items flag set once, got %d", h.storefront.marked)
	}

	cart, err := h.carts.ActiveCart(ctx, result.CustomerID)
	if err != nil {
		t.Fatalf("active cart: %v", err)
	}
	lines, err := h.carts.Lines(ctx, cart)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected quantity split across 2 locations, got %d lines", len(lines))
	}
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	if total != 4 {
		t.Fatalf("expected 4 units, got %d", total)
	}
}

func TestPortalFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	setup := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-7", ""))
	if setup.HTTPStatus != 200 {
		t.Fatalf("setup failed: %s", setup.XML)
	}

	options, err := h.svc.PortalLocations(ctx, "tok-cookie-7")
	if err != nil {
		t.Fatalf("portal locations: %v", err)
	}
	if len(options) != 2 || options[0].Label != "Main Street Tire" || options[0].Value != "ST-0123" {
		t.Fatalf("unexpected options %+v", options)
	}

	redirect, err := h.svc.PortalSubmit(ctx, "tok-cookie-7", "ST-0123")
	if err != nil {
		t.Fatalf("portal submit: %v", err)
	}
	if redirect != "https://shop.tirehub.test/punchout/shopping/start?token=tok-cookie-7" {
		t.Fatalf("unexpected redirect %q", redirect)
	}

	session, err := h.sessions.Get(ctx, "cookie-7")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.CustomerID == nil || session.AddressID != "ST-0123" {
		t.Fatalf("expected customer bound to portal location, got %+v", session)
	}

	if _, err := h.svc.PortalSubmit(ctx, "tok-cookie-7", "ST-9999"); pkgerrors.CodeOf(err) != pkgerrors.CodeDealerUnauthorized {
		t.Fatalf("expected unauthorized location, got %v", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	setup := h.svc.ProcessSetup(ctx, setupRequestDoc("hunter2", "cookie-8", shipToFragment))
	if setup.HTTPStatus != 200 {
		t.Fatalf("setup failed: %s", setup.XML)
	}
	if err := h.items.Create(ctx, &models.PunchoutItem{BuyerCookie: "cookie-8", SKU: "TH-205-55R16", Quantity: 4}); err != nil {
		t.Fatalf("park item: %v", err)
	}
	if _, err := h.svc.ActivateShopping(ctx, "tok-cookie-8"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	form, err := h.svc.CompleteOrder(ctx, CompleteParams{BuyerCookie: "cookie-8", ERPOrderNumber: "ERP-1001"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if form.BrowserFormPostURL != "https://acme.example.com/punchout/return" {
		t.Fatalf("unexpected form post URL %q", form.BrowserFormPostURL)
	}

	raw, err := base64.StdEncoding.DecodeString(form.CXMLBase64)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	doc := string(raw)
	for _, want := range []string{
		"<BuyerCookie>cookie-8</BuyerCookie>",
		"TEMPPO",
		"<SupplierPartID>TH-205-55R16</SupplierPartID>",
		`quantity="4"`,
		"512.40",
		"hunter2",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("order message missing %q:\n%s", want, doc)
		}
	}
	if !strings.Contains(form.CXMLURLEncoded, "%3CBuyerCookie%3E") {
		t.Fatalf("expected url-encoded document, got %s", form.CXMLURLEncoded[:80])
	}
	if strings.Contains(form.CXMLURLEncoded, "+") {
		t.Fatal("expected %20 escaping, found +")
	}

	session, err := h.sessions.Get(ctx, "cookie-8")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Status != enums.SessionStatusCompleted {
		t.Fatalf("expected completed session, got %s", session.Status)
	}
	if session.ERPOrderNumber != "ERP-1001" || !strings.HasPrefix(session.TempPO, "TEMPPO") {
		t.Fatalf("unexpected session bookkeeping %+v", session)
	}
	if h.storefront.disabled != 1 || h.storefront.logouts != 1 {
		t.Fatalf("expected punchout mode disabled and logout, got %d / %d", h.storefront.disabled, h.storefront.logouts)
	}
}
