package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"starhold/pkg/catalog"
	"starhold/pkg/game"
	"starhold/pkg/store"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	quiet := log.New(io.Discard, "", 0)
	engine := game.New(st, catalog.Default(), nil, nil)
	return &server{engine: engine, store: st, info: quiet, errlog: quiet}
}

func executeRequest(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return httptest.NewRequest(method, target, bytes.NewReader(raw))
}

// register runs the register handler and returns the new empire's id and home
// base coordinate.
func register(t *testing.T, s *server, name string) (int64, string) {
	t.Helper()
	req := jsonRequest(t, "POST", "/api/register", map[string]string{"name": name, "password": "secret"})
	rr := executeRequest(s.handleRegister, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("register: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		EmpireID int64  `json:"empire_id"`
		HomeBase string `json:"home_base"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("register response: %v", err)
	}
	if resp.EmpireID == 0 || resp.HomeBase == "" {
		t.Fatalf("register response %+v", resp)
	}
	return resp.EmpireID, resp.HomeBase
}

func withEmpire(req *http.Request, id int64) *http.Request {
	req.Header.Set("X-Empire-ID", fmt.Sprint(id))
	return req
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	id, _ := register(t, s, "Arcadia")

	req := jsonRequest(t, "POST", "/api/login", map[string]string{"name": "Arcadia", "password": "secret"})
	rr := executeRequest(s.handleLogin, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]int64
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["empire_id"] != id {
		t.Errorf("login id %d, want %d", resp["empire_id"], id)
	}

	req = jsonRequest(t, "POST", "/api/login", map[string]string{"name": "Arcadia", "password": "wrong"})
	rr = executeRequest(s.handleLogin, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("bad password: status %d, want 404", rr.Code)
	}
}

func TestMissingIdentityHeader(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "Arcadia")

	rr := executeRequest(s.handleAccrue, httptest.NewRequest("POST", "/api/accrue", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rr.Code)
	}
}

func TestStartActionOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id, home := register(t, s, "Arcadia")

	req := withEmpire(jsonRequest(t, "POST", "/api/actions/start", map[string]string{
		"coord": home, "key": "habitat_dome", "kind": "structure",
	}), id)
	rr := executeRequest(s.handleStartAction, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("start: status %d: %s", rr.Code, rr.Body.String())
	}
	var res game.StartResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Cost != 120 {
		t.Errorf("cost %d, want 120", res.Cost)
	}
	// 120 credits at the starter construction rate of 100/h.
	if res.EtaSeconds != 4320 {
		t.Errorf("eta %d, want 4320", res.EtaSeconds)
	}
	if res.ActionID == "" || res.CompletesAt == 0 {
		t.Errorf("result %+v", res)
	}
}

func TestDuplicateStartIsConflictJSON(t *testing.T) {
	s := newTestServer(t)
	id, home := register(t, s, "Arcadia")

	start := func() *httptest.ResponseRecorder {
		req := withEmpire(jsonRequest(t, "POST", "/api/actions/start", map[string]string{
			"coord": home, "key": "habitat_dome", "kind": "structure",
		}), id)
		return executeRequest(s.handleStartAction, req)
	}
	if rr := start(); rr.Code != http.StatusOK {
		t.Fatalf("first start: status %d: %s", rr.Code, rr.Body.String())
	}

	rr := start()
	if rr.Code != http.StatusConflict {
		t.Fatalf("second start: status %d, want 409", rr.Code)
	}
	var ge game.Error
	if err := json.Unmarshal(rr.Body.Bytes(), &ge); err != nil {
		t.Fatalf("error body not JSON: %s", rr.Body.String())
	}
	if ge.Code != game.CodeAlreadyInProgress {
		t.Errorf("code %s, want %s", ge.Code, game.CodeAlreadyInProgress)
	}
}

func TestCancelOverHTTPRestoresBalance(t *testing.T) {
	s := newTestServer(t)
	id, home := register(t, s, "Arcadia")

	req := withEmpire(jsonRequest(t, "POST", "/api/actions/start", map[string]string{
		"coord": home, "key": "habitat_dome", "kind": "structure",
	}), id)
	rr := executeRequest(s.handleStartAction, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("start: %s", rr.Body.String())
	}
	var started game.StartResult
	json.Unmarshal(rr.Body.Bytes(), &started)

	req = withEmpire(jsonRequest(t, "POST", "/api/actions/cancel", map[string]string{
		"coord": home, "action_id": started.ActionID,
	}), id)
	rr = executeRequest(s.handleCancelAction, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: status %d: %s", rr.Code, rr.Body.String())
	}
	var cancelled game.CancelResult
	json.Unmarshal(rr.Body.Bytes(), &cancelled)
	if cancelled.RefundedCredits != 120 {
		t.Errorf("refund %d, want 120", cancelled.RefundedCredits)
	}

	rr = executeRequest(s.handleAccrue, withEmpire(httptest.NewRequest("POST", "/api/accrue", nil), id))
	if rr.Code != http.StatusOK {
		t.Fatalf("accrue: %s", rr.Body.String())
	}
	var accrued game.AccrualResult
	json.Unmarshal(rr.Body.Bytes(), &accrued)
	if accrued.Empire.Credits != 1000 {
		t.Errorf("credits %d after cancel, want the starting 1000", accrued.Empire.Credits)
	}
}

func TestEnergyEndpointProjection(t *testing.T) {
	s := newTestServer(t)
	id, home := register(t, s, "Arcadia")

	target := "/api/energy?coord=" + home + "&candidate_delta=-60"
	rr := executeRequest(s.handleEnergy, withEmpire(httptest.NewRequest("GET", target, nil), id))
	if rr.Code != http.StatusOK {
		t.Fatalf("energy: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// Starter base: site 30 + solar_array L2 (+40) against yard (-10) and
	// refinery (-15).
	if resp["produced"] != 70 || resp["consumed"] != 25 || resp["balance"] != 45 {
		t.Errorf("report %+v", resp)
	}
	if got, ok := resp["projected"]; !ok || got != -15 {
		t.Errorf("projected %d (present %v), want -15", got, ok)
	}

	rr = executeRequest(s.handleEnergy,
		withEmpire(httptest.NewRequest("GET", "/api/energy?coord="+home+"&candidate_delta=x", nil), id))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad delta: status %d, want 400", rr.Code)
	}
}

func TestLedgerEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := register(t, s, "Arcadia")

	rr := executeRequest(s.handleLedger, withEmpire(httptest.NewRequest("GET", "/api/ledger", nil), id))
	if rr.Code != http.StatusOK {
		t.Fatalf("ledger: status %d", rr.Code)
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	// Onboarding grants the first entry.
	if len(entries) != 1 {
		t.Fatalf("entries %d, want the onboarding grant", len(entries))
	}
	if entries[0]["reason"] != "onboarding" {
		t.Errorf("reason %v", entries[0]["reason"])
	}
}

func TestUnknownBaseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id, _ := register(t, s, "Arcadia")

	rr := executeRequest(s.handleCapacities,
		withEmpire(httptest.NewRequest("GET", "/api/capacities?coord=9999:9999", nil), id))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rr.Code)
	}
	var ge game.Error
	if err := json.Unmarshal(rr.Body.Bytes(), &ge); err != nil {
		t.Fatalf("error body not JSON: %s", rr.Body.String())
	}
	if ge.Code != game.CodeNotFound {
		t.Errorf("code %s", ge.Code)
	}
}

func TestBadJSONBody(t *testing.T) {
	s := newTestServer(t)
	id, _ := register(t, s, "Arcadia")

	req := withEmpire(httptest.NewRequest("POST", "/api/actions/start", bytes.NewReader([]byte("{"))), id)
	rr := executeRequest(s.handleStartAction, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rr.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "Arcadia")

	rr := executeRequest(s.handleSnapshot, httptest.NewRequest("GET", "/api/snapshot", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET snapshot: status %d, want 405", rr.Code)
	}

	rr = executeRequest(s.handleSnapshot, httptest.NewRequest("POST", "/api/snapshot", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("POST snapshot: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["hash"] == "" || resp["hash"] == nil {
		t.Errorf("snapshot response %+v", resp)
	}
}
