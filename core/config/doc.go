// Package config loads environment variables into typed structs using
// caarlos0/env. A .env file in the working directory is read once on first
// use; real environment variables win over it.
//
// Each struct type is parsed once and cached, so components can load their
// own configuration independently:
//
//	var cfg upload.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg) // panics on missing PG_CONN_URL
//
// Tests that change the environment call Reset after t.Setenv.
package config
