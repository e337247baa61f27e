// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/chartwatch/internal/testutil"
)

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		"status error": {
			err:        fmt.Errorf("no such item: %w", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   "{\n  \"status\": \"error\",\n  \"error\": \"no such item: not found\"\n}\n",
		},
		"plain error": {
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "{\n  \"status\": \"error\",\n  \"error\": \"boom\"\n}\n",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			RespondJSONError(w, r, tc.err)
			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertEqual(t, w.Body.String(), tc.wantBody)
			testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	h := Health(mux)
	if Health(mux) != h {
		t.Fatal("Health must return the already registered handler")
	}

	ok := true
	h.RegisterFunc("store", func() (string, bool) { return "loaded", ok })

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	hr := testutil.UnmarshalJSON[HealthResponse](t, w.Body.Bytes())
	testutil.AssertEqual(t, hr, HealthResponse{
		OK:     true,
		Checks: map[string]CheckResponse{"store": {Status: "loaded", OK: true}},
	})

	ok = false
	h.RegisterFunc("scan", func() (string, bool) { return "3 regions", true })
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	testutil.AssertEqual(t, w.Code, http.StatusServiceUnavailable)
	testutil.AssertEqual(t, h.Check(), HealthResponse{
		OK: false,
		Checks: map[string]CheckResponse{
			"scan":  {Status: "3 regions", OK: true},
			"store": {Status: "loaded", OK: false},
		},
	})
}

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, map[string]string{"hello": "world"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	s := &Server{Addr: "localhost:0", Mux: mux, ready: func(addr string) { addrCh <- addr }}

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	addr := <-addrCh
	res, err := http.Get("http://" + addr + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), "{\n  \"hello\": \"world\"\n}\n")

	cancel()
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
}

func TestListenAndServeMisconfigured(t *testing.T) {
	t.Parallel()
	if err := (&Server{Mux: http.NewServeMux()}).ListenAndServe(context.Background()); !errors.Is(err, errNoAddr) {
		t.Fatalf("want errNoAddr, got %v", err)
	}
	if err := (&Server{Addr: "localhost:0"}).ListenAndServe(context.Background()); !errors.Is(err, errNilMux) {
		t.Fatalf("want errNilMux, got %v", err)
	}
}
