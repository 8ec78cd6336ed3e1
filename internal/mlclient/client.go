package mlclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/pkg/circuitbreaker"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client calls the external readmission classifier service. The engine sends
// the raw attribute bag and reads back only the probability; tiering happens
// locally.
type Client struct {
	http   *resty.Client
	cb     *circuitbreaker.CircuitBreaker
	logger *zerolog.Logger
}

type predictRequest struct {
	Patients []model.JSONMap `json:"patients"`
}

type predictResponse struct {
	Success     bool               `json:"success"`
	Predictions []model.Prediction `json:"predictions"`
	Message     string             `json:"message,omitempty"`
}

func New(cfg Config, logger *zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http: http,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "ml-backend",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
		}),
		logger: logger,
	}
}

// Predict classifies one record. The context carries the caller's per-record
// deadline.
func (c *Client) Predict(ctx context.Context, input model.ClassificationInput) (*model.Prediction, error) {
	bag := model.JSONMap{"patient_id": input.PatientID, "name": input.Name}
	for k, v := range input.Attributes {
		bag[k] = v
	}

	var resp predictResponse
	err := c.cb.Execute(func() error {
		r, err := c.http.R().
			SetContext(ctx).
			SetBody(predictRequest{Patients: []model.JSONMap{bag}}).
			SetResult(&resp).
			Post("/predict")
		if err != nil {
			return err
		}
		if r.IsError() {
			return fmt.Errorf("ml backend returned %d: %s", r.StatusCode(), r.String())
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewClassification("predictor unreachable", err)
	}

	if !resp.Success || len(resp.Predictions) == 0 {
		return nil, apperrors.NewClassification("invalid response from ml backend", nil)
	}
	return &resp.Predictions[0], nil
}

// Healthy pings the backend root, used by the health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	r, err := c.http.R().SetContext(ctx).Get("/")
	return err == nil && !r.IsError()
}
