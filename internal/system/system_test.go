package system

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckAvailableSpace(t *testing.T) {
	n, err := CheckAvailableSpace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ok, avail, err := HasSufficientSpace(t.TempDir(), 1)
	if err != nil || avail == 0 || (n > 2 && !ok) {
		t.Fatalf("ok=%v avail=%d err=%v", ok, avail, err)
	}
	if _, err := CheckAvailableSpace("/definitely/not/here"); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestCheckEndpointReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	if err := CheckEndpointReachable(context.Background(), srv.URL+"/1.3/listArtPacks"); err != nil {
		t.Fatalf("expected reachable: %v", err)
	}
	if err := CheckEndpointReachable(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
