package config

import (
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
)

// Validate checks the loaded configuration for values the application
// cannot run without. Marketplace credentials are deliberately not
// required: the search collaborator degrades gracefully when absent.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return derrors.ConfigRequired("llm.api_key")
	}
	if c.Affiliate.Tag == "" {
		return derrors.ConfigRequired("affiliate.tag")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return derrors.ValidationFailed("server.port", "must be between 1 and 65535")
	}
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return derrors.ValidationFailed("store.backend", "must be json or sqlite")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return derrors.ValidationFailed("logging.format", "must be json or text")
	}
	if c.LLM.MaxHistory < 0 {
		return derrors.ValidationFailed("llm.max_history", "must not be negative")
	}
	return nil
}
