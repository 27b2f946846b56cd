package harvest

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/siherrmann/quoter/helper"
)

// DefaultBaseURL is the public quotes listing the harvester was built for.
const DefaultBaseURL = "https://quotes.toscrape.com"

// Config holds the harvest source settings.
type Config struct {
	BaseURL   string `env:"QUOTER_HARVEST_BASE_URL" envDefault:"https://quotes.toscrape.com"`
	UserAgent string `env:"QUOTER_HARVEST_USER_AGENT" envDefault:"quoter-harvester/1.0"`
	// MaxPages stops the walk after this many listing pages, 0 walks until the listing ends.
	MaxPages int `env:"QUOTER_HARVEST_MAX_PAGES" envDefault:"0"`
}

// NewConfigFromEnv reads the harvest configuration from the environment.
func NewConfigFromEnv() (Config, error) {
	config, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, helper.NewError("parse harvest environment", err)
	}
	if _, err := config.parse(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) parse() (*url.URL, error) {
	raw := c.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, helper.NewError("parse base url", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, helper.NewError("parse base url", fmt.Errorf("%q is not an absolute url", raw))
	}
	if c.MaxPages < 0 {
		return nil, helper.NewError("harvest config validation", fmt.Errorf("max pages must not be negative, got %d", c.MaxPages))
	}
	return u, nil
}
