package translator

import (
	"time"

	"babelflag/internal/types"

	"github.com/sirupsen/logrus"
)

// NewProviders builds the cascade's provider chain from configuration. DeepL
// participates only when an API key is present; LibreTranslate and MyMemory
// are always available.
func NewProviders(configManager types.ConfigManager) []Provider {
	cfg := configManager.GetProviderConfig()
	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second

	var providers []Provider
	if cfg.DeepLAPIKey != "" {
		providers = append(providers, NewDeepLProvider(cfg.DeepLAPIKey, cfg.DeepLAPIURL, timeout))
	} else {
		logrus.Info("DeepL API key not configured, cascade starts at LibreTranslate")
	}
	providers = append(providers,
		NewLibreTranslateProvider(cfg.LibreTranslateURL, timeout),
		NewMyMemoryProvider(cfg.MyMemoryURL, timeout),
	)
	return providers
}
