// Package catalog talks to the JLCPCB parts catalog: keyword search,
// part-detail lookup, and a cache-aware resolver used by the generate and
// BOM pipelines.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors surfaced to callers. Transient conditions are not retried
// here; the caller decides whether to rerun.
var (
	// ErrNotFound means the supplier has no part for the identifier.
	ErrNotFound = errors.New("catalog: part not found")
	// ErrAmbiguous means an identifier matched several distinct parts.
	ErrAmbiguous = errors.New("catalog: identifier matches multiple parts")
	// ErrRateLimited means the upstream rejected the request for rate.
	ErrRateLimited = errors.New("catalog: rate limited by upstream")
	// ErrUnavailable means the upstream failed transiently.
	ErrUnavailable = errors.New("catalog: upstream unavailable")
)

// secretKey is a fixed header value the search endpoint requires.
const secretKey = "64656661756c744b65794964"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client queries the JLCPCB catalog endpoints.
type Client struct {
	httpClient *http.Client
	searchURL  string
	detailURL  string
	log        *zap.Logger
}

// NewClient creates a catalog client. The timeout bounds every request.
func NewClient(searchURL, detailURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		searchURL:  searchURL,
		detailURL:  detailURL,
		log:        log,
	}
}

// searchRequest is the wire format of the search endpoint.
type searchRequest struct {
	CurrentPage            int      `json:"currentPage"`
	PageSize               int      `json:"pageSize"`
	SearchType             int      `json:"searchType"`
	Keyword                string   `json:"keyword"`
	ComponentLibraryType   string   `json:"componentLibraryType"`
	PresaleType            string   `json:"presaleType"`
	PreferredComponentFlag bool     `json:"preferredComponentFlag"`
	StockFlag              *bool    `json:"stockFlag"`
	StockSort              *string  `json:"stockSort"`
	FirstSortName          *string  `json:"firstSortName"`
	SecondSortName         *string  `json:"secondSortName"`
	ComponentBrand         *string  `json:"componentBrand"`
	ComponentSpecification *string  `json:"componentSpecification"`
	ComponentAttributes    []string `json:"componentAttributes"`
	FirstSortNameList      []string `json:"firstSortNameList"`
	ComponentBrandList     []string `json:"componentBrandList"`
	ComponentSpecList      []string `json:"componentSpecificationList"`
	ComponentAttributeList []string `json:"componentAttributeList"`
	SearchSource           string   `json:"searchSource"`
	ComponentLibTypes      []string `json:"componentLibTypes,omitempty"`
}

func newSearchRequest(keyword string, f Filters) searchRequest {
	req := searchRequest{
		CurrentPage:            f.Page,
		PageSize:               f.Limit,
		SearchType:             2,
		Keyword:                keyword,
		ComponentAttributes:    []string{},
		FirstSortNameList:      []string{},
		ComponentBrandList:     []string{},
		ComponentSpecList:      []string{},
		ComponentAttributeList: []string{},
		SearchSource:           "search",
	}
	if f.BasicOnly {
		req.ComponentLibraryType = "base"
		req.ComponentLibTypes = []string{"base"}
		req.PreferredComponentFlag = f.IncludePreferred
	}
	return req
}

// searchResponse is the envelope around search results.
type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		ComponentPageInfo *struct {
			Total int64           `json:"total"`
			List  []wireComponent `json:"list"`
		} `json:"componentPageInfo"`
	} `json:"data"`
}

// wireComponent is a part summary as the search endpoint returns it.
type wireComponent struct {
	ComponentCode          string      `json:"componentCode"`
	ComponentModelEn       string      `json:"componentModelEn"`
	ComponentBrandEn       string      `json:"componentBrandEn"`
	FirstSortName          string      `json:"firstSortName"`
	SecondSortName         string      `json:"secondSortName"`
	ComponentSpecification string      `json:"componentSpecification"`
	Describe               string      `json:"describe"`
	StockCount             int64       `json:"stockCount"`
	ComponentPrices        []wirePrice `json:"componentPrices"`
	DatasheetURL           string      `json:"datasheetUrl"`
	ComponentLibraryType   string      `json:"componentLibraryType"`
	PreferredComponentFlag bool        `json:"preferredComponentFlag"`
}

type wirePrice struct {
	StartNumber  int     `json:"startNumber"`
	ProductPrice float64 `json:"productPrice"`
}

func (c wireComponent) toPart() Part {
	breaks := make([]PriceBreak, 0, len(c.ComponentPrices))
	for _, p := range c.ComponentPrices {
		breaks = append(breaks, PriceBreak{Qty: p.StartNumber, Price: p.ProductPrice})
	}

	pkg := c.ComponentSpecification
	if pkg == "" {
		pkg = packageFromDescription(c.Describe)
	}

	return Part{
		LCSC:         c.ComponentCode,
		MPN:          c.ComponentModelEn,
		Manufacturer: c.ComponentBrandEn,
		// secondSortName is the main category upstream, firstSortName
		// the subcategory.
		Category:    c.SecondSortName,
		Subcategory: c.FirstSortName,
		Package:     pkg,
		Description: c.Describe,
		Stock:       c.StockCount,
		PriceBreaks: breaks,
		Datasheet:   c.DatasheetURL,
		Basic:       c.ComponentLibraryType == "base",
		Preferred:   c.PreferredComponentFlag,
	}
}

// Search runs a keyword search and returns exactly the requested remote
// page. Page numbers are 1-indexed; page/limit bound the remote request, not
// a client-side slice.
func (c *Client) Search(ctx context.Context, keyword string, f Filters) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	body, err := json.Marshal(newSearchRequest(keyword, f))
	if err != nil {
		return nil, fmt.Errorf("catalog: encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("catalog: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("secretkey", secretKey)
	req.Header.Set("Origin", "https://jlcpcb.com")
	req.Header.Set("Referer", "https://jlcpcb.com/parts")
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("catalog search", zap.String("keyword", keyword), zap.Int("page", f.Page), zap.Int("limit", f.Limit))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("catalog: decode search response: %w", err)
	}
	if sr.Code != 200 {
		msg := sr.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("catalog: API error: %s", msg)
	}

	page := &Page{}
	if sr.Data != nil && sr.Data.ComponentPageInfo != nil {
		info := sr.Data.ComponentPageInfo
		page.Total = info.Total
		page.Parts = make([]Part, 0, len(info.List))
		for _, wc := range info.List {
			page.Parts = append(page.Parts, wc.toPart())
		}
	}
	return page, nil
}

// GetByID fetches a single part by supplier part number. Returns ErrNotFound
// when the supplier has no such identifier.
func (c *Client) GetByID(ctx context.Context, id string) (*Part, error) {
	id = NormalizeID(id)

	page, err := c.Search(ctx, id, Filters{Page: 1, Limit: 10})
	if err != nil {
		return nil, err
	}

	var matches []Part
	for _, p := range page.Parts {
		if p.LCSC == id {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		part := matches[0]
		return &part, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// detailResponse is the envelope around the detail endpoint.
type detailResponse struct {
	Code int `json:"code"`
	Data *struct {
		ComponentCode            string `json:"componentCode"`
		ComponentBrandEn         string `json:"componentBrandEn"`
		ComponentModelEn         string `json:"componentModelEn"`
		ComponentSpecificationEn string `json:"componentSpecificationEn"`
		Describe                 string `json:"describe"`
		FirstSortName            string `json:"firstSortName"`
		SecondSortName           string `json:"secondSortName"`
		DataManualURL            string `json:"dataManualUrl"`
		Attributes               []struct {
			AttributeNameEn    string `json:"attributeNameEn"`
			AttributeValueName string `json:"attributeValueName"`
		} `json:"attributes"`
	} `json:"data"`
}

// Enrich fills structured attributes (and missing package/datasheet fields)
// from the detail endpoint. A missing detail record leaves the part as-is.
func (c *Client) Enrich(ctx context.Context, part *Part) error {
	u := fmt.Sprintf("%s?componentCode=%s", c.detailURL, url.QueryEscape(part.LCSC))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog: build detail request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	var dr detailResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("catalog: decode detail response: %w", err)
	}
	if dr.Code != 200 || dr.Data == nil {
		return nil
	}

	for _, attr := range dr.Data.Attributes {
		switch attr.AttributeNameEn {
		case "Capacitance":
			part.Attributes.Capacitance = attr.AttributeValueName
		case "Resistance":
			part.Attributes.Resistance = attr.AttributeValueName
		case "Inductance":
			part.Attributes.Inductance = attr.AttributeValueName
		case "Voltage Rating", "Rated Voltage":
			part.Attributes.Voltage = attr.AttributeValueName
		case "Power", "Power Rating":
			part.Attributes.Power = attr.AttributeValueName
		case "Tolerance":
			part.Attributes.Tolerance = attr.AttributeValueName
		case "Temperature Coefficient", "Dielectric":
			part.Attributes.Dielectric = attr.AttributeValueName
		}
	}
	if part.Package == "" && dr.Data.ComponentSpecificationEn != "" {
		part.Package = dr.Data.ComponentSpecificationEn
	}
	if part.Datasheet == "" && dr.Data.DataManualURL != "" {
		part.Datasheet = dr.Data.DataManualURL
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the error taxonomy.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, status)
	case status >= 400:
		return fmt.Errorf("catalog: request failed: HTTP %d", status)
	default:
		return nil
	}
}
