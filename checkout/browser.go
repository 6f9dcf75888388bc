package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"event-registration/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ErrNotLoaded is returned by Open before the checkout script was confirmed reachable
var ErrNotLoaded = errors.New("payment gateway not loaded")

var pageTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Options.Name}}</title></head>
<body>
<p id="status">Opening secure checkout…</p>
<script src="{{.ScriptURL}}"></script>
<script>
(function () {
  var opts = {{.Options}};
  var done = false;
  function send(path, body) {
    if (done) { return; }
    done = true;
    fetch(path, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body || {})})
      .then(function () { document.getElementById("status").textContent = "You can close this window."; });
  }
  opts.handler = function (resp) { send({{.CallbackPath}}, resp); };
  opts.modal = {ondismiss: function () { send({{.DismissPath}}); }};
  new Razorpay(opts).open();
})();
</script>
</body>
</html>
`))

// BrowserBridge serves a one-page checkout on loopback and opens it in the user's browser
type BrowserBridge struct {
	ScriptURL string
	Addr      string

	// OpenURL launches the checkout page; replaced in tests
	OpenURL func(url string) error
	HTTP    *http.Client

	loaded atomic.Bool
}

// NewBrowserBridge creates a bridge listening on an ephemeral loopback port
func NewBrowserBridge(scriptURL string, opener func(url string) error) *BrowserBridge {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}
	return &BrowserBridge{
		ScriptURL: scriptURL,
		Addr:      "127.0.0.1:0",
		OpenURL:   opener,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Load confirms the hosted checkout script is reachable
func (b *BrowserBridge) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.ScriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := b.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("load checkout script: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("load checkout script: status %d", resp.StatusCode)
	}
	b.loaded.Store(true)
	return nil
}

// Loaded reports whether Load succeeded
func (b *BrowserBridge) Loaded() bool {
	return b.loaded.Load()
}

// Open serves the checkout page and launches it. Cancelling ctx counts as a dismissal.
func (b *BrowserBridge) Open(ctx context.Context, opts Options) (<-chan Outcome, error) {
	if !b.Loaded() {
		return nil, ErrNotLoaded
	}
	ln, err := net.Listen("tcp", b.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &checkoutSession{
		opts:   opts,
		token:  uuid.NewString(),
		script: b.ScriptURL,
		out:    make(chan Outcome, 1),
		closed: make(chan struct{}),
	}
	srv := &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	s.stop = func() {
		go func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("checkout server", "err", err)
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.finish(Outcome{Dismissed: true})
		case <-s.closed:
		}
	}()

	pageURL := fmt.Sprintf("http://%s/checkout/%s", ln.Addr().String(), s.token)
	if b.OpenURL != nil {
		if err := b.OpenURL(pageURL); err != nil {
			s.finish(Outcome{Dismissed: true})
			return nil, fmt.Errorf("open checkout: %w", err)
		}
	}
	return s.out, nil
}

type checkoutSession struct {
	opts   Options
	token  string
	script string
	out    chan Outcome
	stop   func()
	closed chan struct{}
	once   sync.Once
}

// finish delivers the first outcome and ignores the rest
func (s *checkoutSession) finish(o Outcome) bool {
	delivered := false
	s.once.Do(func() {
		s.out <- o
		close(s.out)
		close(s.closed)
		s.stop()
		delivered = true
	})
	return delivered
}

func (s *checkoutSession) routes() http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/checkout/" + s.token).Subrouter()
	sub.HandleFunc("", s.page).Methods("GET")
	sub.HandleFunc("/callback", s.callback).Methods("POST")
	sub.HandleFunc("/dismiss", s.dismiss).Methods("POST")
	return router
}

func (s *checkoutSession) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := pageTemplate.Execute(w, map[string]interface{}{
		"Options":      s.opts,
		"ScriptURL":    s.script,
		"CallbackPath": "/checkout/" + s.token + "/callback",
		"DismissPath":  "/checkout/" + s.token + "/dismiss",
	})
	if err != nil {
		slog.Error("render checkout page", "err", err)
	}
}

func (s *checkoutSession) callback(w http.ResponseWriter, r *http.Request) {
	var proof models.PaymentProof
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&proof); err != nil {
		http.Error(w, "invalid payment response", http.StatusBadRequest)
		return
	}
	if !proof.Complete() || proof.OrderID != s.opts.OrderID {
		http.Error(w, "payment response does not match this order", http.StatusBadRequest)
		return
	}
	if !s.finish(Outcome{Proof: &proof}) {
		http.Error(w, "checkout already finished", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *checkoutSession) dismiss(w http.ResponseWriter, r *http.Request) {
	if !s.finish(Outcome{Dismissed: true}) {
		http.Error(w, "checkout already finished", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
