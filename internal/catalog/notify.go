package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/clipzipship/czs-admin/internal/logging"
)

// ReloadNotifier performs the fire-and-forget GET against the serving
// layer's reload endpoint. Failures are logged and swallowed so a dead
// serving layer never fails a registration that already committed.
type ReloadNotifier struct {
	URL    string
	Client *http.Client
}

func NewReloadNotifier(url string) *ReloadNotifier {
	return &ReloadNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *ReloadNotifier) NotifyReload(ctx context.Context) {
	l := logging.FromContext(ctx).With("url", n.URL)
	if n.URL == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.URL, nil)
	if err != nil {
		l.Error("reload notification failed", "error", err)
		return
	}

	res, err := n.Client.Do(req)
	if err != nil {
		l.Error("reload notification failed", "error", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		l.Error("reload notification failed", "status", res.StatusCode)
		return
	}
	l.Info("reload notification sent")
}
