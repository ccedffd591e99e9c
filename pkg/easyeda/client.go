// Package easyeda fetches schematic-symbol and footprint payloads from the
// EasyEDA component service. The payload embeds symbol pin descriptors and
// footprint geometry as tilde-separated shape strings; pkg/pins interprets
// them.
package easyeda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// apiVersion is the version parameter the component endpoint expects.
const apiVersion = "6.4.19.5"

// ErrUnavailable means the symbol service failed transiently.
var ErrUnavailable = errors.New("easyeda: service unavailable")

// Client queries the EasyEDA component endpoint.
type Client struct {
	httpClient *http.Client
	// componentURL is a format string; the supplier part number is
	// inserted as its single argument.
	componentURL string
	log          *zap.Logger
}

// NewClient creates an EasyEDA client.
func NewClient(componentURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		componentURL: componentURL,
		log:          log,
	}
}

// Component is the raw symbol/footprint payload for one part. A nil return
// from GetComponent with no error means the service has no symbol data.
type Component struct {
	// UUID identifies the component in the EasyEDA library.
	UUID string `json:"uuid"`
	// Title is usually the manufacturer part number.
	Title string `json:"title"`
	// DataStr carries the schematic symbol shape strings.
	DataStr *DataStr `json:"dataStr"`
	// PackageDetail carries the footprint.
	PackageDetail *PackageDetail `json:"packageDetail"`
}

// DataStr wraps the symbol shape list.
type DataStr struct {
	Shape []string `json:"shape"`
}

// PackageDetail is the footprint payload.
type PackageDetail struct {
	UUID    string          `json:"uuid"`
	Title   string          `json:"title"`
	DataStr *PackageDataStr `json:"dataStr"`
}

// PackageDataStr wraps footprint head metadata and geometry shapes.
type PackageDataStr struct {
	Head  *PackageHead `json:"head"`
	Shape []string     `json:"shape"`
}

// PackageHead carries footprint metadata.
type PackageHead struct {
	CPara  *PackageParams `json:"c_para"`
	UUID3D string         `json:"uuid_3d"`
}

// PackageParams carries named footprint parameters.
type PackageParams struct {
	Package string `json:"package"`
	Model3D string `json:"3DModel"`
}

type apiResponse struct {
	Success bool       `json:"success"`
	Result  *Component `json:"result"`
}

// GetComponent fetches the component payload for a supplier part number.
// Returns (nil, nil) when the service has no record for the id; transient
// failures surface as ErrUnavailable.
func (c *Client) GetComponent(ctx context.Context, id string) (*Component, error) {
	u := fmt.Sprintf(c.componentURL, id) + "?version=" + apiVersion

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("easyeda: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pcb-jlcpcb")

	c.log.Debug("easyeda fetch", zap.String("id", id))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("easyeda: decode response: %w", err)
	}
	if !ar.Success {
		return nil, nil
	}
	return ar.Result, nil
}
