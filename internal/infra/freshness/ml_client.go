package freshness

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

const defaultMLTimeout = 10 * time.Second

type predictRequest struct {
	Image    string `json:"image"`
	FoodType string `json:"foodType,omitempty"`
}

type predictResponse struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
	FoodName   string  `json:"foodName"`
	Error      string  `json:"error"`
}

// MLClient calls the local inference server's /predict endpoint.
type MLClient struct {
	baseURL string
	client  *http.Client
}

func NewMLClient(baseURL string, timeout time.Duration) *MLClient {
	if timeout <= 0 {
		timeout = defaultMLTimeout
	}

	return &MLClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (m *MLClient) Assess(ctx context.Context, image []byte, _, foodType string) (*entity.Assessment, error) {
	payload, err := json.Marshal(predictRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		FoodType: foodType,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call ml server")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, errors.Errorf("ml server returned status %d: %s", resp.StatusCode, body)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode ml server response")
	}
	if out.Error != "" {
		return nil, errors.Errorf("ml server: %s", out.Error)
	}

	condition, err := ConditionFromLabel(out.Condition)
	if err != nil {
		return nil, err
	}

	detected := foodType
	if out.FoodName != "" {
		detected = out.FoodName
	}

	return &entity.Assessment{
		Condition:  condition,
		Confidence: clampConfidence(out.Confidence),
		Label:      strings.ToLower(out.Condition),
		FoodType:   detected,
		Source:     "ml-server",
	}, nil
}

func clampConfidence(c float64) float64 {
	return min(max(c, 0), 1)
}
