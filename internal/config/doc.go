// Package config loads the YAML configuration shared by the syncer and ingest binaries.
//
// Values of the form ${VAR} are expanded from the environment before parsing,
// so credentials can stay out of the file.
package config
