package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/provider"
)

var testWindow = activity.Window{
	Start: time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC),
}

var testCreds = provider.Credentials{AccessToken: "test_access_token"}

func setupTestClient(t *testing.T, pageSize int, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		PageSize:     pageSize,
	}, nil)
	client.SetBaseURL(server.URL)

	return client
}

func writeActivities(w http.ResponseWriter, n, offset int) {
	list := make([]map[string]any, n)
	for i := range list {
		list[i] = map[string]any{
			"id":          offset + i,
			"name":        fmt.Sprintf("Run %d", offset+i),
			"sport_type":  "Run",
			"start_date":  testWindow.Start.Add(time.Duration(offset+i) * time.Hour).Format(time.RFC3339),
			"distance":    5000,
			"moving_time": 1500,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func TestFetchActivitiesPaginates(t *testing.T) {
	var calls atomic.Int32

	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_access_token" {
			t.Errorf("Missing bearer token")
		}

		q := r.URL.Query()
		if q.Get("after") != strconv.FormatInt(testWindow.Start.Unix(), 10) {
			t.Errorf("Expected fixed after bound, got %s", q.Get("after"))
		}
		if q.Get("before") != strconv.FormatInt(testWindow.End.Unix(), 10) {
			t.Errorf("Expected fixed before bound, got %s", q.Get("before"))
		}
		if q.Get("per_page") != "2" {
			t.Errorf("Expected per_page 2, got %s", q.Get("per_page"))
		}

		calls.Add(1)
		switch q.Get("page") {
		case "1":
			writeActivities(w, 2, 0)
		case "2":
			writeActivities(w, 1, 2)
		default:
			t.Errorf("Unexpected page %s", q.Get("page"))
		}
	})

	records, err := client.FetchActivities(context.Background(), testCreds, testWindow)
	if err != nil {
		t.Fatalf("FetchActivities failed: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("Expected 2 page requests, got %d", calls.Load())
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 activities, got %d", len(records))
	}
}

func TestFetchActivitiesUnauthorizedDiscardsPages(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			writeActivities(w, 2, 0)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Authorization Error"}`))
	})

	records, err := client.FetchActivities(context.Background(), testCreds, testWindow)
	if !provider.IsAuthExpired(err) {
		t.Fatalf("Expected auth expired error, got %v", err)
	}
	if records != nil {
		t.Errorf("Expected no activities on failure, got %d", len(records))
	}
}

func TestFetchActivitiesRateLimited(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "200,2000")
		w.Header().Set("X-RateLimit-Usage", "200,900")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchActivities(context.Background(), testCreds, testWindow)

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("Expected provider error, got %v", err)
	}
	if perr.Kind != provider.KindRateLimited {
		t.Errorf("Expected rate limited, got %s", perr.Kind)
	}
	if perr.RateLimit == nil || perr.RateLimit.UsageDaily != 900 {
		t.Errorf("Expected rate limit snapshot, got %+v", perr.RateLimit)
	}
}

func TestFetchActivitiesForbidden(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.FetchActivities(context.Background(), testCreds, testWindow)
	if provider.KindOf(err) != provider.KindInsufficientScope {
		t.Errorf("Expected insufficient scope, got %v", err)
	}
}

func TestFetchActivitiesMalformedBody(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := client.FetchActivities(context.Background(), testCreds, testWindow)
	if provider.KindOf(err) != provider.KindUnexpected {
		t.Errorf("Expected unexpected error, got %v", err)
	}
}

func TestFetchActivitiesRequiresToken(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected without a token")
	})

	_, err := client.FetchActivities(context.Background(), provider.Credentials{}, testWindow)
	if provider.KindOf(err) != provider.KindUnexpected {
		t.Errorf("Expected unexpected error, got %v", err)
	}
}

func TestFetchProfile(t *testing.T) {
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 42, "username": "runner", "firstname": "Sam", "lastname": "Lee", "city": "Leeds"}`))
	})

	profile, err := client.FetchProfile(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if profile.ID != "42" {
		t.Errorf("Expected ID '42', got %s", profile.ID)
	}
	if profile.DisplayName() != "Sam Lee" {
		t.Errorf("Expected display name 'Sam Lee', got %s", profile.DisplayName())
	}
}

func TestRevokeAccess(t *testing.T) {
	revoked := false
	client := setupTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/oauth/deauthorize" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
			return
		}
		if r.FormValue("access_token") != "test_access_token" {
			t.Errorf("Expected access token in form, got %s", r.FormValue("access_token"))
		}
		revoked = true
		w.Write([]byte(`{"access_token":"test_access_token"}`))
	})

	if err := client.RevokeAccess(context.Background(), testCreds); err != nil {
		t.Fatalf("RevokeAccess failed: %v", err)
	}
	if !revoked {
		t.Error("Expected deauthorize request")
	}
}

func TestGenerateAuthURL(t *testing.T) {
	client := NewClient(Config{ClientID: "test_client_id", ClientSecret: "secret"}, nil)

	raw := client.GenerateAuthURL("https://example.com/callback", "state123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Invalid URL: %v", err)
	}

	if u.Host != "www.strava.com" || u.Path != "/oauth/authorize" {
		t.Errorf("Unexpected authorize endpoint %s", raw)
	}
	q := u.Query()
	if q.Get("client_id") != "test_client_id" {
		t.Errorf("Expected client_id, got %s", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://example.com/callback" {
		t.Errorf("Expected redirect_uri, got %s", q.Get("redirect_uri"))
	}
	if q.Get("state") != "state123" {
		t.Errorf("Expected state, got %s", q.Get("state"))
	}
	if q.Get("scope") != "read,activity:read_all" {
		t.Errorf("Expected activity scope, got %s", q.Get("scope"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("Expected response_type code, got %s", q.Get("response_type"))
	}
}
