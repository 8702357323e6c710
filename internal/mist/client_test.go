package mist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		BaseURL:  server.URL + "/",
		OrgID:    "org-42",
		APIToken: "secret-token",
	}, nil)
	return client, server
}

func TestListSitesSortsByNameCaseInsensitively(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/orgs/org-42/sites" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret-token" {
			t.Errorf("authorization header = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "3", "name": "zurich"},
			{"id": "1", "name": "Amsterdam"},
			{"id": "2", "name": "berlin"},
		})
	})

	sites, err := client.ListSites(context.Background())
	if err != nil {
		t.Fatalf("list sites: %v", err)
	}

	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}
	if sites[0].Name != "Amsterdam" || sites[1].Name != "berlin" || sites[2].Name != "zurich" {
		t.Fatalf("sites out of order: %+v", sites)
	}
}

func TestListInventory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/orgs/org-42/inventory" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"serial": "S1", "mac": "aabbccddeeff", "model": "AP45", "name": "ap-01"},
		})
	})

	records, err := client.ListInventory(context.Background())
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Serial != "S1" || records[0].MAC != "aabbccddeeff" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestAssignSendsExpectedPayload(t *testing.T) {
	var got assignPayload
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/api/v1/orgs/org-42/inventory" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Assign(context.Background(), "site-7", "aa:bb:cc:dd:ee:ff"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if got.Op != "assign" || got.SiteID != "site-7" {
		t.Fatalf("payload = %+v", got)
	}
	if len(got.MACs) != 1 || got.MACs[0] != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("payload macs = %v", got.MACs)
	}
}

func TestAssignRemoteFailureSurfacesStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device not claimable", http.StatusBadRequest)
	})

	err := client.Assign(context.Background(), "site-7", "aa:bb:cc:dd:ee:ff")
	if err == nil {
		t.Fatalf("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Body != "device not claimable" {
		t.Fatalf("body = %q", apiErr.Body)
	}
}

func TestListInventoryRemoteFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListInventory(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://api.example.com///", OrgID: "o"}, nil)

	if got := client.orgURL("sites"); got != "https://api.example.com/api/v1/orgs/o/sites" {
		t.Fatalf("orgURL = %q", got)
	}
}
