package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"
	"github.com/google/uuid"

	"github.com/clipzipship/czs-admin/internal/usererr"
)

// Client fetches a metadata record from the CSW catalog and converts the
// XML document to a generic JSON-friendly map. The URL template carries a
// {metadata_uuid} placeholder.
type Client struct {
	URLTemplate string
	HTTP        *http.Client
}

func NewClient(urlTemplate string) *Client {
	return &Client{
		URLTemplate: urlTemplate,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Get(ctx context.Context, metadataUUID string) (map[string]interface{}, error) {
	if _, err := uuid.Parse(metadataUUID); err != nil {
		return nil, usererr.New(http.StatusInternalServerError, "Invalid UUID.", "UUID invalide.")
	}

	url := strings.ReplaceAll(c.URLTemplate, "{metadata_uuid}", metadataUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build catalog request: %w", err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach the catalog: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog response: %w", err)
	}

	record, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("cannot parse catalog record: %w", err)
	}
	return map[string]interface{}(record), nil
}
