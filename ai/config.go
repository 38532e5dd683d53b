// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "errors"

// Config holds configuration for provider session factories.
type Config struct {
	// APIKey authenticates against the upstream provider family.
	// Supplied externally, typically from the GEMINI_API_KEY environment variable.
	APIKey string

	// TopP is the nucleus sampling parameter applied to generation sessions.
	// Default: 0.8
	TopP float64

	// TopK is the top-k sampling parameter applied to generation sessions.
	// Default: 40
	TopK int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTopP sets the nucleus sampling parameter for generation sessions.
func WithTopP(topP float64) ConfigOption {
	return func(c *Config) {
		c.TopP = topP
	}
}

// WithTopK sets the top-k sampling parameter for generation sessions.
func WithTopK(topK int) ConfigOption {
	return func(c *Config) {
		c.TopK = topK
	}
}

// DefaultConfig returns a Config with the sampling defaults the original
// service tuned for precision. The APIKey must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		TopP: 0.8,
		TopK: 40,
	}
}

// NewConfig creates a Config with default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.TopP < 0 || c.TopP > 1 {
		return errors.New("ai config: TopP must be between 0 and 1")
	}
	if c.TopK < 0 {
		return errors.New("ai config: TopK must be non-negative")
	}
	return nil
}
