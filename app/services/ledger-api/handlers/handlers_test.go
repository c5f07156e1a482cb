package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/disastersync/ledger/app/services/ledger-api/handlers"
	"github.com/disastersync/ledger/business/core/audit"
	"github.com/disastersync/ledger/business/sys/metrics"
	"github.com/disastersync/ledger/foundation/events"
	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/disastersync/ledger/foundation/ledger/storage/memory"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type service struct {
	api   http.Handler
	debug http.Handler
	evts  *events.Events
	ldg   *ledger.Ledger
}

func newService(t *testing.T) service {
	log := zap.NewNop().Sugar()

	ldg, err := ledger.New(ledger.Config{Storage: memory.New()})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
	}

	mtr := metrics.New()
	mtr.WatchLedger(ldg)

	evts := events.New()
	t.Cleanup(evts.Shutdown)

	api := handlers.APIMux(handlers.APIMuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        log,
		Metrics:    mtr,
		Audit:      audit.NewCore(log, ldg, mtr, evts),
		Evts:       evts,
		CorsOrigin: "*",
	})

	return service{
		api:   api,
		debug: handlers.DebugMux("test", log, ldg, mtr),
		evts:  evts,
		ldg:   ldg,
	}
}

func do(h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// =============================================================================

func Test_Dispatch(t *testing.T) {
	t.Log("Given the need to record operational actions in the ledger.")
	{
		svc := newService(t)

		t.Logf("\tTest 0:\tWhen dispatching an alert.")
		{
			w := do(svc.api, http.MethodPost, "/v1/alerts", `{"type":"Flood","message":"Evacuate now","region":"North"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould receive a status code of 200, got %d: %s", failed, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a status code of 200.", success)

			var resp struct {
				Success bool `json:"success"`
				Alert   struct {
					ID       string   `json:"id"`
					Channels []string `json:"channels"`
					Status   string   `json:"status"`
				} `json:"alert"`
				Blockchain ledger.Block `json:"blockchain"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to unmarshal the response: %v", failed, err)
			}

			if !resp.Success || resp.Alert.ID == "" || resp.Alert.Status != "Dispatched" {
				t.Fatalf("\t%s\tTest 0:\tShould describe the dispatched alert: %s", failed, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould describe the dispatched alert.", success)

			if strings.Join(resp.Alert.Channels, ",") != "SMS,Push" {
				t.Fatalf("\t%s\tTest 0:\tShould use the default channels, got %v.", failed, resp.Alert.Channels)
			}
			t.Logf("\t%s\tTest 0:\tShould use the default channels.", success)

			if resp.Blockchain.Index != 1 || resp.Blockchain.Type != audit.TypeAlertDispatched {
				t.Fatalf("\t%s\tTest 0:\tShould return the appended block, got %s.", failed, resp.Blockchain)
			}

			if resp.Blockchain.Hash != svc.ldg.Latest().Hash {
				t.Fatalf("\t%s\tTest 0:\tShould return the latest block in the ledger.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the appended block.", success)
		}

		t.Logf("\tTest 1:\tWhen the requests are invalid.")
		{
			tt := []struct {
				name string
				path string
				body string
			}{
				{"nomessage", "/v1/alerts", `{"type":"Flood"}`},
				{"badcoords", "/v1/resources/amb-1/dispatch", `{"destination":"Zone A","targetCoordinates":[1,2,3]}`},
				{"notype", "/v1/citizen-report", `{"description":"water rising"}`},
				{"badjson", "/v1/blockchain", `{"type":`},
			}

			for _, tst := range tt {
				f := func(t *testing.T) {
					w := do(svc.api, http.MethodPost, tst.path, tst.body)
					if w.Code != http.StatusBadRequest {
						t.Fatalf("\t%s\tTest 1:\tShould receive a status code of 400, got %d: %s", failed, w.Code, w.Body)
					}
					t.Logf("\t%s\tTest 1:\tShould receive a status code of 400.", success)
				}
				t.Run(tst.name, f)
			}

			if svc.ldg.Len() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould not append invalid requests, got %d blocks.", failed, svc.ldg.Len())
			}
			t.Logf("\t%s\tTest 1:\tShould not append invalid requests.", success)
		}

		t.Logf("\tTest 2:\tWhen dispatching a resource and reporting an incident.")
		{
			w := do(svc.api, http.MethodPost, "/v1/resources/amb-1/dispatch", `{"destination":"Zone A","targetCoordinates":[34.05,-118.24]}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 2:\tShould dispatch the resource, got %d: %s", failed, w.Code, w.Body)
			}

			var data struct {
				ResourceID string `json:"resourceId"`
			}
			if err := svc.ldg.Latest().Decode(&data); err != nil || data.ResourceID != "amb-1" {
				t.Fatalf("\t%s\tTest 2:\tShould record the resource id, got %q: %v", failed, data.ResourceID, err)
			}
			t.Logf("\t%s\tTest 2:\tShould record the resource dispatch.", success)

			w = do(svc.api, http.MethodPost, "/v1/citizen-report", `{"type":"Fire","location":"Main St"}`)
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"Received"`) {
				t.Fatalf("\t%s\tTest 2:\tShould receive the report, got %d: %s", failed, w.Code, w.Body)
			}

			if svc.ldg.Latest().Type != audit.TypeCitizenReport {
				t.Fatalf("\t%s\tTest 2:\tShould record the citizen report.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould record the citizen report.", success)
		}
	}
}

func Test_Blockchain(t *testing.T) {
	t.Log("Given the need to read and verify the ledger over the API.")
	{
		svc := newService(t)

		t.Logf("\tTest 0:\tWhen appending a record directly.")
		{
			w := do(svc.api, http.MethodPost, "/v1/blockchain", `{"type":"TEST","data":{"b":1,"a":2}}`)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 0:\tShould receive a status code of 201, got %d: %s", failed, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a status code of 201.", success)

			if string(svc.ldg.Latest().Data) != `{"b":1,"a":2}` {
				t.Fatalf("\t%s\tTest 0:\tShould keep the data as sent, got %s.", failed, svc.ldg.Latest().Data)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the data as sent.", success)
		}

		t.Logf("\tTest 1:\tWhen listing the chain.")
		{
			var all []ledger.Block
			w := do(svc.api, http.MethodGet, "/v1/blockchain", "")
			if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil || len(all) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould list both blocks, got %d: %v", failed, len(all), err)
			}
			t.Logf("\t%s\tTest 1:\tShould list both blocks.", success)

			var filtered []ledger.Block
			w = do(svc.api, http.MethodGet, "/v1/blockchain?type=TEST", "")
			if err := json.Unmarshal(w.Body.Bytes(), &filtered); err != nil || len(filtered) != 1 || filtered[0].Type != "TEST" {
				t.Fatalf("\t%s\tTest 1:\tShould filter by type, got %d: %v", failed, len(filtered), err)
			}
			t.Logf("\t%s\tTest 1:\tShould filter by type.", success)

			var latest ledger.Block
			w = do(svc.api, http.MethodGet, "/v1/blockchain/latest", "")
			if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil || latest.Index != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould return the latest block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould return the latest block.", success)

			var stats ledger.Stats
			w = do(svc.api, http.MethodGet, "/v1/blockchain/stats", "")
			if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil || stats.TotalBlocks != 2 || stats.BlocksByType["TEST"] != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould return the stats, got %+v: %v", failed, stats, err)
			}
			t.Logf("\t%s\tTest 1:\tShould return the stats.", success)
		}

		t.Logf("\tTest 2:\tWhen verifying the chain.")
		{
			var res ledger.VerificationResult
			w := do(svc.api, http.MethodGet, "/v1/blockchain/verify", "")
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || !res.Valid {
				t.Fatalf("\t%s\tTest 2:\tShould report a valid chain: %s", failed, w.Body)
			}
			t.Logf("\t%s\tTest 2:\tShould report a valid chain.", success)

			w = do(svc.debug, http.MethodGet, "/debug/readiness", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 2:\tShould be ready, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 2:\tShould be ready.", success)

			w = do(svc.debug, http.MethodGet, "/metrics", "")
			if !strings.Contains(w.Body.String(), "ledger_chain_blocks 2") {
				t.Fatalf("\t%s\tTest 2:\tShould expose the chain length metric.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould expose the chain length metric.", success)
		}

		t.Logf("\tTest 3:\tWhen a browser sends a cross origin request.")
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/blockchain/latest", nil)
			r.Header.Set("Origin", "http://localhost:3000")
			w := httptest.NewRecorder()
			svc.api.ServeHTTP(w, r)

			if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Fatalf("\t%s\tTest 3:\tShould allow the origin, got %d %q.", failed, w.Code, w.Header().Get("Access-Control-Allow-Origin"))
			}
			t.Logf("\t%s\tTest 3:\tShould allow the origin.", success)
		}
	}
}

func Test_Events(t *testing.T) {
	t.Log("Given the need to stream new blocks to live clients.")
	{
		svc := newService(t)

		srv := httptest.NewServer(svc.api)
		defer srv.Close()

		t.Logf("\tTest 0:\tWhen a client is connected during an alert.")
		{
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events"
			c, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to connect: %v", failed, err)
			}
			defer c.Close()
			t.Logf("\t%s\tTest 0:\tShould be able to connect.", success)

			deadline := time.Now().Add(5 * time.Second)
			for svc.evts.Subscribers() == 0 {
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest 0:\tShould register the subscriber.", failed)
				}
				time.Sleep(10 * time.Millisecond)
			}

			do(svc.api, http.MethodPost, "/v1/alerts", `{"type":"Flood","message":"Evacuate now"}`)

			seen := make(map[string]bool)
			c.SetReadDeadline(time.Now().Add(5 * time.Second))
			for !seen[audit.EventBlock] || !seen["new-alert"] {
				_, msg, err := c.ReadMessage()
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould receive the events, seen %v: %v", failed, seen, err)
				}

				var ev events.Event
				if err := json.Unmarshal(msg, &ev); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould receive JSON events: %v", failed, err)
				}
				seen[ev.Name] = true
			}
			t.Logf("\t%s\tTest 0:\tShould receive the block and alert events.", success)
		}
	}
}
