// Package signals implements rating.ExternalSignalProvider.
package signals

import (
	"strings"

	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/httpclient"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// NewProvider builds the provider selected by cfg.  It returns nil when
// signals are disabled; the engine then rates with neutral signal factors.
func NewProvider(cfg config.SignalsConfig, logger logging.Logger) (domain.ExternalSignalProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "static":
		return NewStaticProvider(cfg.Static), nil
	case "http":
		client, err := httpclient.New(httpclient.Config{
			Name:            "signals",
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			MaxConnsPerHost: cfg.MaxConnsPerHost,
		}, logger)
		if err != nil {
			return nil, err
		}
		return NewHTTPProvider(client), nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown signals provider %q", cfg.Provider)
	}
}

//Personal.AI order the ending
