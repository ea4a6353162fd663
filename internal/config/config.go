/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package config

// Config holds all configuration for the application
type Config struct {
	Ingest       IngestConfig
	Output       OutputConfig
	HTTP         HTTPConfig
	Log          LogConfig
	Database     DatabaseConfig
	GeminiAPIKey string
}

// IngestConfig holds parsing configuration shared by all commands.
type IngestConfig struct {
	// Separator is the field separator as a string. Empty means sniff.
	Separator    string
	HasHeader    bool
	ColumnNames  []string
	NullLiterals []string
	ChunkSize    int
	RowLimit     int
}

// OutputConfig holds serialization configuration.
type OutputConfig struct {
	Format string
	Layout string
	// DownloadDir routes output through a directory sink when no
	// destination file is given.
	DownloadDir string
}

// HTTPConfig holds remote fetch configuration.
type HTTPConfig struct {
	TimeoutSeconds int
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Dialect                        string
	Host                           string
	Port                           int
	User                           string
	Password                       string
	DBName                         string
	SSLMode                        string
	CloudSQLInstanceConnectionName string
	UsePrivateIP                   bool
	Table                          string
	BatchSize                      int
}

var globalConfig *Config

// GetConfig returns a default configuration. Configuration will be set by flags in root.go
func GetConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			HasHeader: true,
			ChunkSize: 1024,
		},
		Output: OutputConfig{
			Format: "csv",
			Layout: "auto",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Dialect:   "postgres",
			Host:      "localhost",
			Port:      5432,
			SSLMode:   "disable",
			BatchSize: 500,
		},
		GeminiAPIKey: "", // Gemini API key can be set via flag or env var
	}
}

// SetConfig sets the global configuration.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Current returns the configuration set at startup, or the defaults when
// none was set.
func Current() *Config {
	if globalConfig == nil {
		return GetConfig()
	}
	return globalConfig
}
