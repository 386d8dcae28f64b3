// Package geocoding resolves addresses through OpenRouteService with a
// Nominatim fallback.
package geocoding

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"foodbridge/config"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/service"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultUserAgent    = "FoodBridge App"
	defaultORSURL       = "https://api.openrouteservice.org"
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
)

type provider interface {
	name() string
	geocode(ctx context.Context, address string) (*entity.GeocodeResult, error)
	reverse(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error)
}

// chainGeocoder asks each provider in order. Provider errors are logged and
// the next provider is tried; when every provider fails the result is nil.
type chainGeocoder struct {
	providers []provider
	logger    *slog.Logger
}

// NewGeocoder builds the provider chain from configuration. OpenRouteService
// is only used when an API key is configured.
func NewGeocoder(cfg *config.Config, logger *slog.Logger) service.Geocoder {
	gc := cfg.Geocoding
	if gc == nil {
		gc = &config.GeocodingConfig{}
	}

	timeout := gc.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := gc.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := &http.Client{Timeout: timeout}

	g := &chainGeocoder{logger: logger}
	if gc.OpenRouteServiceKey != "" {
		g.providers = append(g.providers, &openRouteService{
			baseURL: orDefault(gc.OpenRouteServiceURL, defaultORSURL),
			apiKey:  gc.OpenRouteServiceKey,
			client:  client,
		})
	}
	g.providers = append(g.providers, &nominatim{
		baseURL:   orDefault(gc.NominatimURL, defaultNominatimURL),
		userAgent: userAgent,
		client:    client,
	})

	return g
}

func (g *chainGeocoder) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	if address == "" {
		return nil, nil
	}

	for _, p := range g.providers {
		result, err := p.geocode(ctx, address)
		if err != nil {
			g.logger.WarnContext(ctx, "geocoding failed",
				slog.String("provider", p.name()),
				slog.Any("error", err),
			)

			continue
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

func (g *chainGeocoder) ReverseGeocode(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error) {
	if !point.Valid() {
		return nil, nil
	}

	for _, p := range g.providers {
		result, err := p.reverse(ctx, point)
		if err != nil {
			g.logger.WarnContext(ctx, "reverse geocoding failed",
				slog.String("provider", p.name()),
				slog.Any("error", err),
			)

			continue
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
