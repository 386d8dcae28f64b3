package geocoding

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"foodbridge/internal/domain/entity"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

const orsAccept = "application/json, application/geo+json, application/gpx+xml, img/png; charset=utf-8"

type openRouteService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func (o *openRouteService) name() string { return "openrouteservice" }

func (o *openRouteService) geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("api_key", o.apiKey)
	q.Set("text", address)

	return o.fetch(ctx, "/geocode/search", q)
}

func (o *openRouteService) reverse(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("api_key", o.apiKey)
	q.Set("point.lon", strconv.FormatFloat(point.Longitude, 'f', -1, 64))
	q.Set("point.lat", strconv.FormatFloat(point.Latitude, 'f', -1, 64))

	return o.fetch(ctx, "/geocode/reverse", q)
}

// fetch returns the first feature of the GeoJSON answer.
func (o *openRouteService) fetch(ctx context.Context, path string, q url.Values) (*entity.GeocodeResult, error) {
	endpoint := strings.TrimRight(o.baseURL, "/") + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Accept", orsAccept)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode feature collection")
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	feature := fc.Features[0]
	point, ok := feature.Geometry.(orb.Point)
	if !ok {
		return nil, errors.Errorf("unexpected geometry %T", feature.Geometry)
	}

	return &entity.GeocodeResult{
		Coordinates: entity.Coordinates{Latitude: point.Lat(), Longitude: point.Lon()},
		DisplayName: feature.Properties.MustString("label", ""),
		Provider:    o.name(),
	}, nil
}
