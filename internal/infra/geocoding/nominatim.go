package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func (n *nominatim) name() string { return "nominatim" }

func (n *nominatim) geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")

	var places []nominatimPlace
	if err := n.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	return n.toResult(places[0])
}

func (n *nominatim) reverse(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(point.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(point.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var place nominatimPlace
	if err := n.get(ctx, "/reverse", q, &place); err != nil {
		return nil, err
	}
	if place.DisplayName == "" {
		return nil, nil
	}
	if place.Lat == "" {
		return &entity.GeocodeResult{Coordinates: point, DisplayName: place.DisplayName, Provider: n.name()}, nil
	}

	return n.toResult(place)
}

func (n *nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := strings.TrimRight(n.baseURL, "/") + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("status %d", resp.StatusCode)
	}

	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode nominatim response")
}

func (n *nominatim) toResult(p nominatimPlace) (*entity.GeocodeResult, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse lat")
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse lon")
	}

	return &entity.GeocodeResult{
		Coordinates: entity.Coordinates{Latitude: lat, Longitude: lng},
		DisplayName: p.DisplayName,
		Provider:    n.name(),
	}, nil
}
