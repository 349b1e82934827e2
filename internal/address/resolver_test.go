package address

import (
	"context"
	"testing"

	"github.com/tirehub/punchout-backend/internal/dealers"
	"github.com/tirehub/punchout-backend/internal/partners"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

type stubPartners struct {
	partner *partners.Partner
	err     error
}

func (s *stubPartners) ByIdentity(ctx context.Context, identity string) (*partners.Partner, error) {
	return s.partner, s.err
}

type stubDealers struct {
	lookupCode string
	lookup     []dealers.Dealer
	common     []dealers.Dealer
	err        error
}

func (s *stubDealers) Lookup(ctx context.Context, dealerCode string) ([]dealers.Dealer, error) {
	s.lookupCode = dealerCode
	return s.lookup, s.err
}

func (s *stubDealers) LookupCommon(ctx context.Context, dealerCode string) ([]dealers.Dealer, error) {
	s.lookupCode = dealerCode
	return s.common, s.err
}

func newResolver(t *testing.T, p *partners.Partner, d *stubDealers) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverParams{Partners: &stubPartners{partner: p}, Dealers: d})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestFormatDealerCode(t *testing.T) {
	cases := []struct {
		name      string
		addressID string
		identity  string
		partner   *partners.Partner
		want      string
	}{
		{"no rules", "1234", "acme", &partners.Partner{Identity: "acme"}, "1234"},
		{"trim leading zero", "0012345", "acme", &partners.Partner{Identity: "acme", TrimLeadingZeroFromDealerCode: true}, "0123"},
		{"trim needs leading zero", "9012345", "acme", &partners.Partner{Identity: "acme", TrimLeadingZeroFromDealerCode: true}, "9012345"},
		{"trim needs five chars", "0123", "acme", &partners.Partner{Identity: "acme", TrimLeadingZeroFromDealerCode: true}, "0123"},
		{"carmax always trims", "912345", "CarMax", &partners.Partner{Identity: "carmax"}, "1234"},
		{"carmax short code untouched", "12345", "carmax", &partners.Partner{Identity: "carmax"}, "12345"},
		{"prefix reapplied once", "D1234", "acme", &partners.Partner{Identity: "acme", DealerPrefix: "D"}, "D1234"},
		{"prefix added", "1234", "acme", &partners.Partner{Identity: "acme", DealerPrefix: "D"}, "D1234"},
		{"unknown partner", "0012345", "ghost", nil, "0012345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newResolver(t, tc.partner, &stubDealers{})
			got, err := r.Format(context.Background(), tc.addressID, tc.identity)
			if err != nil {
				t.Fatalf("format: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveReturnsShipToLocation(t *testing.T) {
	d := &stubDealers{lookup: []dealers.Dealer{
		{DealerCode: "0123", ShipToLocation: dealers.ShipToLocation{LocationID: "ST-0123"}},
	}}
	r := newResolver(t, &partners.Partner{Identity: "acme", TrimLeadingZeroFromDealerCode: true}, d)

	got, err := r.Resolve(context.Background(), "0012345", "acme")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "ST-0123" {
		t.Fatalf("expected ST-0123, got %q", got)
	}
	if d.lookupCode != "0123" {
		t.Fatalf("expected formatted code lookup, got %q", d.lookupCode)
	}
}

func TestResolveUnmatchedDealer(t *testing.T) {
	r := newResolver(t, &partners.Partner{Identity: "acme"}, &stubDealers{})

	_, err := r.Resolve(context.Background(), "0012345", "acme")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDealerNotFound {
		t.Fatalf("expected dealer not found, got %v", err)
	}

	status, text := err.(*pkgerrors.Error).CXMLStatus()
	if status != 400 {
		t.Fatalf("expected status 400, got %d", status)
	}
	if text != "Unable to match requested address id 0012345 to TireHub Ship To! Please contact your administrator" {
		t.Fatalf("unexpected status text %q", text)
	}
}

func TestAuthorize(t *testing.T) {
	d := &stubDealers{common: []dealers.Dealer{
		{DealerCode: "1001"},
		{DealerCode: "1002"},
	}}
	r := newResolver(t, &partners.Partner{Identity: "acme"}, d)

	if err := r.Authorize(context.Background(), "1002", "9001"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if d.lookupCode != "9001" {
		t.Fatalf("expected corp code lookup, got %q", d.lookupCode)
	}

	err := r.Authorize(context.Background(), "2000", "9001")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDealerUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, text := err.(*pkgerrors.Error).CXMLStatus(); text != "This location 2000 Is not currently authorized to use TireHub punchout! Please contact your administrator" {
		t.Fatalf("unexpected status text %q", text)
	}

	if err := r.Authorize(context.Background(), "1001", ""); pkgerrors.CodeOf(err) != pkgerrors.CodeDealerUnauthorized {
		t.Fatalf("expected unauthorized for missing corp id, got %v", err)
	}
}
