package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

const DefaultWeb3FormsEndpoint = "https://api.web3forms.com/submit"

type Web3FormsConfig struct {
	AccessKey string `yaml:"access_key"`
	Endpoint  string `yaml:"endpoint"`
}

// Web3Forms submits notifications to a web3forms inbox, which forwards them
// by email.
type Web3Forms struct {
	client    webclient.WebClient
	endpoint  string
	accessKey string
	logger    logging.Logger
}

func NewWeb3Forms(cfg Web3FormsConfig, wc webclient.WebClient, logger logging.Logger) (*Web3Forms, error) {
	if wc == nil {
		return nil, errors.New("web3forms notifier requires a webclient")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("web3forms notifier requires an access key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultWeb3FormsEndpoint
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Web3Forms{client: wc, endpoint: cfg.Endpoint, accessKey: cfg.AccessKey, logger: logger}, nil
}

type web3formsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (w *Web3Forms) Notify(ctx context.Context, n model.Notification) error {
	payload := map[string]string{
		"access_key":           w.accessKey,
		"subject":              fmt.Sprintf("[%s] failed to build %s", n.SiteName, n.File),
		"from_name":            "hyperdocs",
		"message":              n.Message,
		"error":                n.Error,
		"site":                 n.SiteName,
		"file":                 n.File,
		"Visit Page on GitHub": n.RepoLink,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode web3forms payload: %w", err)
	}

	hdrs := http.Header{}
	hdrs.Set("Content-Type", "application/json")
	hdrs.Set("Accept", "application/json")
	resp, err := w.client.Do(ctx, &webclient.Request{Method: http.MethodPost, URL: w.endpoint, Headers: hdrs, Body: body})
	if err != nil {
		return fmt.Errorf("web3forms submit: %w", err)
	}

	var out web3formsResponse
	_ = json.Unmarshal(resp.Body, &out)
	if !resp.OK() {
		return fmt.Errorf("web3forms submit: status %d: %s", resp.StatusCode, out.Message)
	}
	if !out.Success {
		return fmt.Errorf("web3forms submit rejected: %s", out.Message)
	}

	w.logger.Debug("web3forms notification sent",
		logging.Field{Key: "site", Value: n.SiteSlug},
		logging.Field{Key: "file", Value: n.File})
	return nil
}
