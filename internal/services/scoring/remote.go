package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DiabScreen/internal/domain/models"
	xhttp "DiabScreen/pkg/http"
)

// Remote asks an external model server for the probability.
// The server receives {"features": {...}} and answers {"probability": p}.
type Remote struct {
	url    string
	client *xhttp.Client
}

type remoteRequest struct {
	Features map[string]interface{} `json:"features"`
	Columns  []string               `json:"columns"`
}

type remoteResponse struct {
	Probability *float64 `json:"probability"`
}

// NewRemote builds a client for the model server at url.
func NewRemote(url string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Remote{
		url:    strings.TrimRight(url, "/"),
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// PredictProba posts one row. Failures are not retried.
func (r *Remote) PredictProba(ctx context.Context, vec models.FeatureVector) (float64, error) {
	if r.client == nil || r.url == "" {
		return 0, errors.New("remote classifier not configured")
	}

	var resp remoteResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.url,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: remoteRequest{Features: vec.Map(), Columns: vec.Names()},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", r.url, err)
	}
	if resp.Probability == nil {
		return 0, errors.New("model server response has no probability")
	}
	return *resp.Probability, nil
}
