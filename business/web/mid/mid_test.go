package mid_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/disastersync/ledger/business/sys/metrics"
	"github.com/disastersync/ledger/business/web/errs"
	"github.com/disastersync/ledger/business/web/mid"
	"github.com/disastersync/ledger/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Middleware(t *testing.T) {
	t.Log("Given the need to handle errors and panics uniformly.")
	{
		log := zap.NewNop().Sugar()
		mtr := metrics.New()

		app := web.NewApp(
			make(chan os.Signal, 1),
			mid.Logger(log),
			mid.Metrics(mtr),
			mid.Errors(log),
			mid.Cors("https://a.example, https://b.example"),
			mid.Panics(mtr),
		)

		app.Handle(http.MethodGet, "v1", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return errs.NotFound(errors.New("resource not found"))
		})
		app.Handle(http.MethodGet, "v1", "/untrusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return errors.New("database password is hunter2")
		})
		app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			panic("boom")
		})

		tt := []struct {
			name   string
			path   string
			origin string
			status int
			body   string
			allow  string
		}{
			{"trusted", "/v1/trusted", "https://a.example", http.StatusNotFound, "resource not found", "https://a.example"},
			{"untrusted", "/v1/untrusted", "https://c.example", http.StatusInternalServerError, "Internal Server Error", ""},
			{"panic", "/v1/panic", "", http.StatusInternalServerError, "Internal Server Error", ""},
		}

		t.Logf("\tTest 0:\tWhen handlers fail.")
		{
			for _, tst := range tt {
				f := func(t *testing.T) {
					r := httptest.NewRequest(http.MethodGet, tst.path, nil)
					if tst.origin != "" {
						r.Header.Set("Origin", tst.origin)
					}
					w := httptest.NewRecorder()
					app.ServeHTTP(w, r)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest 0:\tShould receive a status code of %d, got %d.", failed, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest 0:\tShould receive a status code of %d.", success, tst.status)

					if !strings.Contains(w.Body.String(), tst.body) {
						t.Fatalf("\t%s\tTest 0:\tShould respond with %q, got %s.", failed, tst.body, w.Body)
					}
					t.Logf("\t%s\tTest 0:\tShould respond with a safe message.", success)

					if got := w.Header().Get("Access-Control-Allow-Origin"); got != tst.allow {
						t.Fatalf("\t%s\tTest 0:\tShould allow origin %q, got %q.", failed, tst.allow, got)
					}
					t.Logf("\t%s\tTest 0:\tShould only allow listed origins.", success)
				}
				t.Run(tst.name, f)
			}
		}
	}
}
