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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/database"
	_ "github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/logging"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	dryRun  bool

	// Ingest flags
	separator   string
	hasHeader   bool
	columnNames string
	nullValues  string
	chunkSize   int
	rowLimit    int
	inputFormat string
	httpTimeout int

	// Output flags
	outputFormat string
	jsonLayout   string
	downloadDir  string

	// Logging flags
	logLevel  string
	logFormat string

	geminiAPIKey string

	// Database connection flags
	dialect                        string
	host                           string
	port                           int
	username                       string
	password                       string
	dbName                         string
	sslMode                        string
	tableName                      string
	batchSize                      int
	cloudSQLInstanceConnectionName string
	cloudSQLUsePrivateIP           bool
)

var rootCmd = &cobra.Command{
	Use:   "tabular_toolkit",
	Short: "A toolkit for reading, converting and loading tabular data",
	Long: `tabular_toolkit is a CLI for working with tabular files. It reads CSV, TSV,
JSON and Parquet inputs from local paths or URLs, infers column types, and can
convert between formats, profile columns, and load data into a database.`,
	PersistentPreRunE: initFlagsAndConfig,
}

// initFlagsAndConfig layers configuration sources and publishes the result:
// command-line flags override TABULAR_* environment variables, which
// override the optional config file, which overrides the flag defaults.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}
	viper.SetEnvPrefix("TABULAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cmd != nil {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind command flags: %w", err)
		}
		// File and environment values fill in flags the user did not set
		// on the command line.
		var flagErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed && viper.IsSet(f.Name) {
				if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", viper.Get(f.Name))); err != nil && flagErr == nil {
					flagErr = fmt.Errorf("invalid value for --%s: %w", f.Name, err)
				}
			}
		})
		if flagErr != nil {
			return flagErr
		}
	}

	cfg := config.GetConfig()
	cfg.Ingest.Separator = separator
	cfg.Ingest.HasHeader = hasHeader
	cfg.Ingest.ColumnNames = utils.ParseColumnsFlag(columnNames)
	cfg.Ingest.NullLiterals = utils.ParseColumnsFlag(nullValues)
	cfg.Ingest.ChunkSize = chunkSize
	cfg.Ingest.RowLimit = rowLimit
	cfg.Output.Format = outputFormat
	cfg.Output.Layout = jsonLayout
	cfg.Output.DownloadDir = downloadDir
	cfg.HTTP.TimeoutSeconds = httpTimeout
	cfg.Log.Level = logLevel
	cfg.Log.Format = logFormat

	cfg.Database.Dialect = dialect
	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.User = username
	cfg.Database.Password = password
	cfg.Database.DBName = dbName
	cfg.Database.SSLMode = sslMode
	cfg.Database.Table = tableName
	cfg.Database.BatchSize = batchSize
	cfg.Database.CloudSQLInstanceConnectionName = cloudSQLInstanceConnectionName
	cfg.Database.UsePrivateIP = cloudSQLUsePrivateIP

	if geminiAPIKey == "" {
		geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.GeminiAPIKey = geminiAPIKey
	config.SetConfig(cfg)

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	return nil
}

func validateDialect(dialect string) error {
	supportedDialects := []string{"postgres", "cloudsqlpostgres", "mysql", "cloudsqlmysql", "sqlserver", "cloudsqlsqlserver"}
	isValidDialect := false
	for _, supportedDialect := range supportedDialects {
		if dialect == supportedDialect {
			isValidDialect = true
			break
		}
	}
	if !isValidDialect {
		return fmt.Errorf("unsupported dialect: %s (only %s are supported)", dialect, strings.Join(supportedDialects, ", "))
	}
	return nil
}

func setupDatabase() (*database.DB, error) {
	cfg := config.Current()
	db, err := database.New(cfg.Database)
	if err != nil {
		zap.L().Error("failed to connect to database", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (optional; flags and TABULAR_* environment variables override it)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", true, "Enable dry-run mode (no database modifications)")

	// Ingest flags
	rootCmd.PersistentFlags().StringVar(&separator, "separator", "", "Field separator for delimited input, a single character or 'tab' (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVar(&hasHeader, "has-header", true, "Treat the first row of delimited input as column names")
	rootCmd.PersistentFlags().StringVar(&columnNames, "column-names", "", "Comma-separated column names overriding the header row, or naming headerless columns")
	rootCmd.PersistentFlags().StringVar(&nullValues, "null-values", "", "Comma-separated tokens treated as null in addition to the empty string (e.g., 'NA,null')")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 1024, "Rows per block when streaming delimited input")
	rootCmd.PersistentFlags().IntVar(&rowLimit, "row-limit", 0, "Stop reading after this many data rows (0 reads all)")
	rootCmd.PersistentFlags().StringVar(&inputFormat, "input-format", "", "Input format (csv, tsv, json, parquet; default: detect from the file extension)")
	rootCmd.PersistentFlags().StringVar(&jsonLayout, "layout", "auto", "JSON table layout for reading and writing (auto, column, row)")
	rootCmd.PersistentFlags().IntVar(&httpTimeout, "http-timeout", 30, "Timeout in seconds for fetching remote inputs")

	// Logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console or json)")

	// Database connection flags
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", fmt.Sprintf("Database dialect (%s) - MANDATORY for load", strings.Join([]string{"postgres", "mysql", "sqlserver", "cloudsqlpostgres", "cloudsqlmysql", "cloudsqlsqlserver"}, ", ")))
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Database host")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Database port")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Database username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Database password")
	rootCmd.PersistentFlags().StringVar(&dbName, "database", "", "Database name")
	rootCmd.PersistentFlags().StringVar(&sslMode, "ssl-mode", "disable", "SSL mode for postgres connections")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "Destination table name (defaults to the input file name)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", database.DefaultBatchSize, "Rows per generated INSERT statement")
	rootCmd.PersistentFlags().StringVar(&cloudSQLInstanceConnectionName, "cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects) - MANDATORY for CloudSQL")
	rootCmd.PersistentFlags().BoolVar(&cloudSQLUsePrivateIP, "cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Gemini API Key flag
	rootCmd.PersistentFlags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")

	// Add subcommands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(loadCmd)
}
