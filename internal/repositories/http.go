package repositories

import (
	"net/http"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/pkg/resilience"
)

// HTTPClient is the part of *http.Client the repositories rely on.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func newCaller(name string, client HTTPClient, remote config.RemoteConfig) *resilience.Caller {
	return resilience.NewCaller(name, client, resilience.BackoffConfig{
		MaxRetries:      remote.MaxRetries,
		InitialInterval: remote.InitialInterval,
		MaxInterval:     remote.MaxInterval,
	}, remote.Timeout)
}
