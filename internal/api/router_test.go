package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"frostmeter/internal/storage"
)

// fakeCommands records which command flags were raised.
type fakeCommands struct {
	resets, saves, pauses, details int
	bossOnly                       *bool
}

func (f *fakeCommands) RequestReset()         { f.resets++ }
func (f *fakeCommands) RequestSave()          { f.saves++ }
func (f *fakeCommands) RequestPauseToggle()   { f.pauses++ }
func (f *fakeCommands) RequestDetailsToggle() { f.details++ }
func (f *fakeCommands) RequestBossOnly(enabled bool) {
	f.bossOnly = &enabled
}

// fakeStore serves canned encounter history.
type fakeStore struct {
	previews []storage.Preview
	records  map[int64]*storage.EncounterRecord

	lastLimit, lastOffset int
}

func (f *fakeStore) ListPreviews(limit, offset int) ([]storage.Preview, error) {
	f.lastLimit, f.lastOffset = limit, offset
	return f.previews, nil
}

func (f *fakeStore) Get(id int64) (*storage.EncounterRecord, error) {
	return f.records[id], nil
}

func testServer(t *testing.T, commands CommandSink, store EncounterStore) *httptest.Server {
	t.Helper()
	router := NewRouter(RouterConfig{
		Commands: commands,
		Store:    store,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Minute,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

// TestHealthEndpoint tests the liveness probe
func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t, &fakeCommands{}, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

// TestCommandEndpoints tests that each POST raises the matching engine flag
func TestCommandEndpoints(t *testing.T) {
	commands := &fakeCommands{}
	ts := testServer(t, commands, nil)

	for _, path := range []string{"reset", "save", "pause", "details"} {
		resp, err := http.Post(ts.URL+"/api/command/"+path, "application/json", nil)
		if err != nil {
			t.Fatalf("post %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
	if commands.resets != 1 || commands.saves != 1 || commands.pauses != 1 || commands.details != 1 {
		t.Errorf("command counts wrong: %+v", commands)
	}
}

// TestBossOnlyCommand tests the JSON body of the boss-only toggle
func TestBossOnlyCommand(t *testing.T) {
	commands := &fakeCommands{}
	ts := testServer(t, commands, nil)

	resp, err := http.Post(ts.URL+"/api/command/boss-only", "application/json",
		bytes.NewBufferString(`{"enabled": true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if commands.bossOnly == nil || !*commands.bossOnly {
		t.Error("boss-only true should reach the sink")
	}

	resp, err = http.Post(ts.URL+"/api/command/boss-only", "application/json",
		bytes.NewBufferString(`not json`))
	if err != nil {
		t.Fatalf("post bad body: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body should 400, got %d", resp.StatusCode)
	}
}

// TestListEncounters tests paging parameters and the disabled-store case
func TestListEncounters(t *testing.T) {
	store := &fakeStore{previews: []storage.Preview{{ID: 1, BossName: "Frost Sentinel"}}}
	ts := testServer(t, &fakeCommands{}, store)

	resp, err := http.Get(ts.URL + "/api/encounters?limit=5&offset=10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.lastLimit != 5 || store.lastOffset != 10 {
		t.Errorf("paging not forwarded: limit %d offset %d", store.lastLimit, store.lastOffset)
	}
	var body struct {
		Encounters []storage.Preview `json:"encounters"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Encounters) != 1 || body.Encounters[0].BossName != "Frost Sentinel" {
		t.Errorf("body wrong: %+v", body)
	}

	// Absurd limits fall back to the default.
	http.Get(ts.URL + "/api/encounters?limit=9999")
	if store.lastLimit != 25 {
		t.Errorf("oversized limit should fall back to 25, got %d", store.lastLimit)
	}

	// Without a store the endpoint is a 404.
	noStore := testServer(t, &fakeCommands{}, nil)
	resp2, _ := http.Get(noStore.URL + "/api/encounters")
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("disabled history should 404, got %d", resp2.StatusCode)
	}
}

// TestGetEncounter tests detail lookup, bad ids and misses
func TestGetEncounter(t *testing.T) {
	store := &fakeStore{records: map[int64]*storage.EncounterRecord{
		7: {ID: 7, Duration: 120, Misc: storage.EncounterMisc{Difficulty: "Hard", RaidClear: true}},
	}}
	ts := testServer(t, &fakeCommands{}, store)

	resp, err := http.Get(ts.URL + "/api/encounters/7")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rec storage.EncounterRecord
	json.NewDecoder(resp.Body).Decode(&rec)
	if rec.ID != 7 || rec.Misc.Difficulty != "Hard" {
		t.Errorf("record wrong: %+v", rec)
	}

	resp2, _ := http.Get(ts.URL + "/api/encounters/999")
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("missing id should 404, got %d", resp2.StatusCode)
	}

	resp3, _ := http.Get(ts.URL + "/api/encounters/notanumber")
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id should 400, got %d", resp3.StatusCode)
	}
}

// TestRateLimitRejects tests that the per-IP limiter returns 429 when exhausted
func TestRateLimitRejects(t *testing.T) {
	router := NewRouter(RouterConfig{
		Commands: &fakeCommands{},
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   time.Minute,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := http.Get(fmt.Sprintf("%s/api/health", ts.URL))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst exhaustion should produce 429")
	}
}
