// Package config loads typed configuration from environment variables.
//
// Structs describe their variables with caarlos0/env tags. A ".env" file in
// the working directory is read once before the first Load; real environment
// variables take precedence over it.
//
//	type GatewayConfig struct {
//		HTTP    httpserver.Config
//		Session ssosession.Config
//		Backend ssobackend.Config
//	}
//
//	var cfg GatewayConfig
//	config.MustLoad(&cfg)
//
// Results are cached per type.
package config
