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

const DefaultORSURL = "https://api.openrouteservice.org"

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
			Layer string `json:"layer"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSLookup geocodes addresses with OpenRouteService (/geocode/search).
// The credential is sent in the Authorization header.
type ORSLookup struct {
	client restClient
	log    zerolog.Logger
}

func NewORSLookup(baseURL string, session *http.Client, log zerolog.Logger) *ORSLookup {
	if baseURL == "" {
		baseURL = DefaultORSURL
	}
	return &ORSLookup{client: newRestClient(session, baseURL), log: log}
}

func (o *ORSLookup) Lookup(ctx context.Context, req ports.LookupRequest) (_ ports.LookupResult, err error) {
	defer obs.Time(ctx, o.log, "ors.Lookup")(&err)

	q := url.Values{}
	q.Set("text", req.Address)
	q.Set("size", "1")
	if req.Region != "" {
		q.Set("boundary.country", req.Region)
	}

	httpReq, err := o.client.newRequest(ctx, "/geocode/search", q)
	if err != nil {
		return ports.LookupResult{}, err
	}
	httpReq.Header.Set("Authorization", req.Credential)

	resp, err := o.client.do(httpReq)
	if err != nil {
		code := statusCode(err)
		switch code {
		case http.StatusUnauthorized:
			return ports.LookupResult{Status: ports.StatusInvalidCredential, Info: err.Error()}, nil
		case http.StatusForbidden:
			return ports.LookupResult{Status: ports.StatusQuotaExhausted, Info: err.Error()}, nil
		case http.StatusTooManyRequests:
			return ports.LookupResult{Status: ports.StatusRateLimited, Info: err.Error()}, nil
		}
		return ports.LookupResult{}, &TransportError{Provider: "ors", Code: code, Err: err}
	}
	defer resp.Body.Close()

	var decoded orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.LookupResult{}, &TransportError{Provider: "ors", Code: resp.StatusCode, Err: fmt.Errorf("decode geocode response: %w", err)}
	}

	if len(decoded.Features) == 0 {
		return ports.LookupResult{Status: ports.StatusNoMatch}, nil
	}

	f := decoded.Features[0]
	coords := f.Geometry.Coordinates
	if len(coords) != 2 {
		return ports.LookupResult{}, &TransportError{
			Provider: "ors",
			Code:     resp.StatusCode,
			Err:      fmt.Errorf("invalid coordinates for %q: %v", req.Address, coords),
		}
	}

	return ports.LookupResult{
		Status:           ports.StatusMatch,
		Location:         domain.Coordinates{Lat: coords[1], Lng: coords[0]},
		Level:            f.Properties.Layer,
		FormattedAddress: f.Properties.Label,
	}, nil
}
