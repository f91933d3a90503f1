package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
)

const DefaultAMapURL = "https://restapi.amap.com"

// AMap infocodes that decide whether a failed answer is worth retrying.
const (
	amapInvalidKey         = "10001"
	amapDailyLimit         = "10003"
	amapTooFrequent        = "10004"
	amapQPSExceeded        = "10019"
	amapKeyQPSExceeded     = "10020"
	amapAccountQPSExceeded = "10021"
	amapUserDailyLimit     = "10044"
)

type amapResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
	Geocodes []struct {
		FormattedAddress json.RawMessage `json:"formatted_address"`
		Location         json.RawMessage `json:"location"`
		Level            json.RawMessage `json:"level"`
	} `json:"geocodes"`
}

// AMapLookup geocodes addresses with the AMap v3 REST API (/v3/geocode/geo).
// Every call is a single attempt.
type AMapLookup struct {
	client restClient
	log    zerolog.Logger
}

func NewAMapLookup(baseURL string, session *http.Client, log zerolog.Logger) *AMapLookup {
	if baseURL == "" {
		baseURL = DefaultAMapURL
	}
	return &AMapLookup{client: newRestClient(session, baseURL), log: log}
}

func (a *AMapLookup) Lookup(ctx context.Context, req ports.LookupRequest) (_ ports.LookupResult, err error) {
	defer obs.Time(ctx, a.log, "amap.Lookup")(&err)

	q := url.Values{}
	q.Set("address", req.Address)
	q.Set("key", req.Credential)
	if req.Region != "" {
		q.Set("city", req.Region)
	}

	httpReq, err := a.client.newRequest(ctx, "/v3/geocode/geo", q)
	if err != nil {
		return ports.LookupResult{}, err
	}

	resp, err := a.client.do(httpReq)
	if err != nil {
		return ports.LookupResult{}, &TransportError{Provider: "amap", Code: statusCode(err), Err: err}
	}
	defer resp.Body.Close()

	var decoded amapResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.LookupResult{}, &TransportError{Provider: "amap", Code: resp.StatusCode, Err: fmt.Errorf("decode geocode response: %w", err)}
	}

	info := decoded.Infocode + " " + decoded.Info

	if decoded.Status != "1" {
		return ports.LookupResult{Status: classifyAMap(decoded.Infocode), Info: info}, nil
	}
	if len(decoded.Geocodes) == 0 {
		return ports.LookupResult{Status: ports.StatusNoMatch, Info: info}, nil
	}

	g := decoded.Geocodes[0]
	// AMap sends [] instead of a string for fields it could not fill.
	location := rawString(g.Location)
	if location == "" {
		return ports.LookupResult{Status: ports.StatusNoMatch, Info: info}, nil
	}

	coords, err := domain.ParseLngLat(location)
	if err != nil {
		return ports.LookupResult{}, &TransportError{Provider: "amap", Code: resp.StatusCode, Err: err}
	}

	return ports.LookupResult{
		Status:           ports.StatusMatch,
		Location:         coords,
		Level:            rawString(g.Level),
		FormattedAddress: rawString(g.FormattedAddress),
		Info:             info,
	}, nil
}

func classifyAMap(infocode string) ports.LookupStatus {
	switch infocode {
	case amapInvalidKey:
		return ports.StatusInvalidCredential
	case amapDailyLimit, amapUserDailyLimit:
		return ports.StatusQuotaExhausted
	case amapTooFrequent, amapQPSExceeded, amapKeyQPSExceeded, amapAccountQPSExceeded:
		return ports.StatusRateLimited
	default:
		return ports.StatusNoMatch
	}
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
