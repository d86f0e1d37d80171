package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKrakenPairPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0/public/Ticker" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("pair") != "XRPUSD" {
			t.Errorf("unexpected pair %s", r.URL.Query().Get("pair"))
		}
		w.Write([]byte(`{"error":[],"result":{"XXRPZUSD":{"c":["0.52340","1000"]}}}`))
	}))
	defer server.Close()

	feed := NewKraken(server.URL, nil)
	price, err := feed.PairPrice(context.Background(), "XRP", "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.52340 {
		t.Fatalf("unexpected price: %v", price)
	}
}

func TestKrakenErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer server.Close()

	feed := NewKraken(server.URL, nil)
	if _, err := feed.PairPrice(context.Background(), "XRP", "XYZ"); err == nil {
		t.Fatal("expected error from kraken error payload")
	}
}

func TestCoingeckoPairPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "ripple" {
			t.Errorf("unexpected ids %s", r.URL.Query().Get("ids"))
		}
		if r.URL.Query().Get("vs_currencies") != "eur" {
			t.Errorf("unexpected vs_currencies %s", r.URL.Query().Get("vs_currencies"))
		}
		w.Write([]byte(`{"ripple":{"eur":0.48}}`))
	}))
	defer server.Close()

	feed := NewCoingecko(server.URL, nil)
	price, err := feed.PairPrice(context.Background(), "XRP", "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.48 {
		t.Fatalf("unexpected price: %v", price)
	}
}

func TestCoingeckoUnknownAsset(t *testing.T) {
	feed := NewCoingecko("http://unused.invalid", nil)
	_, err := feed.PairPrice(context.Background(), "DOGE", "USD")

	var notListed ErrPairNotListed
	if !errors.As(err, &notListed) {
		t.Fatalf("expected pair-not-listed error, got %v", err)
	}
}

func TestBinancePairPriceMapsUSDToUSDT(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "XRPUSDT" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"symbol":"XRPUSDT","price":"0.51990000"}`))
	}))
	defer server.Close()

	feed := NewBinance(server.URL, nil)
	price, err := feed.PairPrice(context.Background(), "XRP", "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.5199 {
		t.Fatalf("unexpected price: %v", price)
	}
}

func TestBinanceUnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	feed := NewBinance(server.URL, nil)
	_, err := feed.PairPrice(context.Background(), "ZZZ", "USD")

	var notListed ErrPairNotListed
	if !errors.As(err, &notListed) {
		t.Fatalf("expected pair-not-listed error, got %v", err)
	}
}
