package dealers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tirehub/punchout-backend/pkg/config"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.DealersConfig{
		BaseURL: "http://dealers.test",
		APIKey:  "test-key",
	}, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLookupRequest(t *testing.T) {
	const respBody = `{"results":[{"dealerCode":"1234","shipToLocation":{"locationId":"ST-1234","locationName":"Main Street Tire"}}]}`

	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Header.Get("X-Api-Key") != "test-key" {
			t.Fatalf("api key header missing")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	results, err := client.Lookup(context.Background(), "1234")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if capturedURL != "http://dealers.test/api/dealers/lookup?dealerCode=1234" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if len(results) != 1 || results[0].ShipToLocation.LocationID != "ST-1234" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestLookupCommonRequest(t *testing.T) {
	const respBody = `{"results":[{"dealerCode":"1001","shipToLocation":{"locationName":"North Depot"}},{"dealerCode":"1002","shipToLocation":{"locationName":"South Depot"}}]}`

	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	results, err := client.LookupCommon(context.Background(), "9001")
	if err != nil {
		t.Fatalf("lookup common: %v", err)
	}
	if capturedURL != "http://dealers.test/api/dealers/common?dealerCode=9001" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if len(results) != 2 || results[1].DealerCode != "1002" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestLookupRejectsBlankCode(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request")
		return nil, nil
	})

	if _, err := client.Lookup(context.Background(), "   "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupErrorStatus(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader("maintenance")),
			Header:     http.Header{},
		}, nil
	})

	if _, err := client.Lookup(context.Background(), "1234"); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
