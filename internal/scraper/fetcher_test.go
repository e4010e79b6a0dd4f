package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
)

var priceRule = models.TagRule{TagName: "span", Attributes: map[string]string{"class": "price"}}

func servePage(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_FetchPrice(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<html><body>
		<span class="old-price">$120.00</span>
		<span class="price">$89.99</span>
		<span class="price">$10.00</span>
	</body></html>`)

	got, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, priceRule)
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if !got.Equal(decimal.RequireFromString("89.99")) {
		t.Errorf("FetchPrice() = %s, want 89.99", got)
	}
}

func TestFetcher_FetchPrice_AllAttributesMustMatch(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<div>
		<p class="price" id="list">1,500.00</p>
		<p class="price" id="sale">1,299.00</p>
	</div>`)
	rule := models.TagRule{TagName: "p", Attributes: map[string]string{"class": "price", "id": "sale"}}

	got, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, rule)
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1299.00")) {
		t.Errorf("FetchPrice() = %s, want 1299.00", got)
	}
}

func TestFetcher_FetchPrice_AttributeValueIsExact(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<span class="price large">$5.00</span>`)

	_, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, priceRule)
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *ElementNotFoundError", err)
	}
}

func TestFetcher_FetchPrice_ElementNotFound(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<div class="price">$89.99</div>`)

	_, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, priceRule)
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *ElementNotFoundError", err)
	}
	if notFound.URL != srv.URL {
		t.Errorf("URL = %q, want %q", notFound.URL, srv.URL)
	}
}

func TestFetcher_FetchPrice_ParseError(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<span class="price">Contact us for price</span>`)

	_, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, priceRule)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestFetcher_FetchPrice_NonSuccessStatus(t *testing.T) {
	srv := servePage(t, http.StatusServiceUnavailable, `<span class="price">$89.99</span>`)

	_, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, priceRule)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", fetchErr.StatusCode)
	}
}

func TestFetcher_FetchPrice_TransportError(t *testing.T) {
	srv := servePage(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(nil, 0).FetchPrice(context.Background(), url, priceRule)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != 0 || fetchErr.Err == nil {
		t.Errorf("FetchError = %+v, want transport error", fetchErr)
	}
}

func TestFetcher_FetchPrice_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := NewFetcher(client, 0).FetchPrice(context.Background(), srv.URL, priceRule)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

func TestFetcher_FetchPrice_EmptyTagRule(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<span class="price">$1.00</span>`)

	_, err := NewFetcher(srv.Client(), 0).FetchPrice(context.Background(), srv.URL, models.TagRule{})
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *ElementNotFoundError", err)
	}
}
