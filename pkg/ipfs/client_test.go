package ipfs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"veritas-data-pipeline/internal/pkg/apperror"
)

func newTestClient(t *testing.T, apiURLs, gatewayURLs []string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIURLs:      apiURLs,
		GatewayURLs:  gatewayURLs,
		MaxRetries:   3,
		RetryDelay:   time.Millisecond,
		ProbeTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func addHandler(hash string, calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		fmt.Fprintf(w, `{"Hash":%q}`, hash)
	})
}

func failHandler(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})
}

func TestStoreReturnsCid(t *testing.T) {
	srv := httptest.NewServer(addHandler("QmTest", nil))
	defer srv.Close()

	c := newTestClient(t, []string{srv.URL}, []string{"https://gw.example"})

	cid, err := c.Store(context.Background(), []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cid != "QmTest" {
		t.Errorf("cid = %s, want QmTest", cid)
	}
}

func TestStoreFallsThroughToNextEndpoint(t *testing.T) {
	var badCalls, goodCalls atomic.Int32

	bad := httptest.NewServer(failHandler(&badCalls))
	defer bad.Close()
	good := httptest.NewServer(addHandler("QmGood", &goodCalls))
	defer good.Close()

	c := newTestClient(t, []string{bad.URL, good.URL}, []string{"https://gw.example"})

	cid, err := c.Store(context.Background(), []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cid != "QmGood" {
		t.Errorf("cid = %s, want QmGood", cid)
	}
	if badCalls.Load() != 1 || goodCalls.Load() != 1 {
		t.Errorf("calls = bad %d good %d, want 1 each", badCalls.Load(), goodCalls.Load())
	}

	// The successful endpoint becomes sticky for the next operation.
	goodCalls.Store(0)
	badCalls.Store(0)
	if _, err := c.Store(context.Background(), []byte("again")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badCalls.Load() != 0 {
		t.Errorf("failed endpoint was retried first after successful rotation")
	}
}

func TestStoreExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	bad := httptest.NewServer(failHandler(&calls))
	defer bad.Close()

	c := newTestClient(t, []string{bad.URL}, []string{"https://gw.example"})

	_, err := c.Store(context.Background(), []byte("content"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !apperror.IsKind(err, apperror.KindStorage) {
		t.Errorf("error kind = %v, want KindStorage", apperror.KindOf(err))
	}
	// The ceiling counts total attempts, not attempts per endpoint.
	if calls.Load() != 3 {
		t.Errorf("attempts = %d, want 3", calls.Load())
	}
}

func TestStoreRespectsContextCancellation(t *testing.T) {
	bad := httptest.NewServer(failHandler(nil))
	defer bad.Close()

	c, err := NewClient(Config{
		APIURLs:     []string{bad.URL},
		GatewayURLs: []string{"https://gw.example"},
		MaxRetries:  3,
		RetryDelay:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.Store(ctx, []byte("content"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("cancellation did not interrupt the backoff wait")
	}
}

func TestRetrieveRoundTrip(t *testing.T) {
	payload := []byte("stored bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/add" {
			fmt.Fprintf(w, `{"Hash":"QmRT"}`)
			return
		}
		if r.URL.Path == "/cat" && r.URL.Query().Get("arg") == "QmRT" {
			w.Write(payload)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(t, []string{srv.URL}, []string{"https://gw.example"})

	cid, err := c.Store(context.Background(), payload)
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := c.Retrieve(context.Background(), cid)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("retrieved %q, want %q", got, payload)
	}
}

func TestResolveGatewayPicksFirstHealthy(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	c := newTestClient(t, []string{"http://unused.example"}, []string{down.URL, up.URL})

	url := c.ResolveGateway(context.Background(), "QmX")
	want := up.URL + "/ipfs/QmX"
	if url != want {
		t.Errorf("resolved %s, want %s", url, want)
	}

	// The healthy gateway becomes sticky.
	if got := c.PreferredGatewayURL("QmY"); got != up.URL+"/ipfs/QmY" {
		t.Errorf("preferred gateway = %s, want %s", got, up.URL+"/ipfs/QmY")
	}
}

func TestResolveGatewayFallsBackToTopRanked(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer down.Close()

	c := newTestClient(t, []string{"http://unused.example"}, []string{down.URL})

	url := c.ResolveGateway(context.Background(), "QmX")
	if url != down.URL+"/ipfs/QmX" {
		t.Errorf("fallback url = %s, want top-ranked gateway", url)
	}
}

func TestResolveGatewayCachesResolution(t *testing.T) {
	var probes atomic.Int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	c := newTestClient(t, []string{"http://unused.example"}, []string{up.URL})

	c.ResolveGateway(context.Background(), "QmX")
	c.ResolveGateway(context.Background(), "QmX")

	if probes.Load() != 1 {
		t.Errorf("probes = %d, want 1 (second resolution should hit the cache)", probes.Load())
	}
}
