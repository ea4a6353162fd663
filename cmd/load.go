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

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/database"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:     "load [input]",
	Short:   "Generate SQL that loads a tabular file into a database table",
	Long:    `Reads a tabular file, generates CREATE TABLE and INSERT statements matching its inferred schema, and writes them to a file for review. With --dry-run=false the statements are applied to the database after confirmation. Statement generation only needs --dialect; applying needs the connection flags as well.`,
	Example: "./tabular_toolkit load orders.csv --dialect postgres\n./tabular_toolkit load orders.csv --dialect cloudsqlpostgres --username user --password pass --database mydb --cloudsql-instance-connection-name my-project:my-region:my-instance --table orders --dry-run=false",
	Args:    cobra.ExactArgs(1),
	RunE:    runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	ctx := cmd.Context()
	input := args[0]

	if err := validateDialect(cfg.Database.Dialect); err != nil {
		return err
	}

	table := cfg.Database.Table
	if table == "" {
		table = utils.DatasetName(input)
	}

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(table, "load")
	}

	zap.L().Info("starting load operation",
		zap.String("dialect", cfg.Database.Dialect),
		zap.String("input", input),
		zap.String("table", table))

	f, casts, err := ingestFrame(ctx, input, cfg)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	logCastErrors(input, casts)
	if f.NumRows() == 0 {
		zap.L().Warn("input has no data rows; only the CREATE TABLE statement will be generated")
	}

	// SQL generation needs only the dialect handler, not a live
	// connection, so dry runs work without a reachable database.
	handler, err := database.GetDialectHandler(cfg.Database.Dialect)
	if err != nil {
		return err
	}
	generator := &database.DB{Handler: handler, Config: cfg.Database}

	var sqlStatements []string
	createTable, err := cmd.Flags().GetBool("create-table")
	if err != nil {
		return err
	}
	if createTable {
		ddl, err := generator.GenerateCreateTableSQL(table, f)
		if err != nil {
			return fmt.Errorf("failed to generate CREATE TABLE statement: %w", err)
		}
		sqlStatements = append(sqlStatements, ddl)
	}
	inserts, err := generator.GenerateInsertSQL(table, f, cfg.Database.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to generate INSERT statements: %w", err)
	}
	sqlStatements = append(sqlStatements, inserts...)

	file, createErr := os.Create(outputFile)
	if createErr != nil {
		return fmt.Errorf("failed to create output file: %w", createErr)
	}
	defer file.Close()

	for _, sqlStmt := range sqlStatements {
		if _, writeErr := file.WriteString(sqlStmt + "\n"); writeErr != nil {
			return fmt.Errorf("failed to write SQL statement to file: %w", writeErr)
		}
	}
	fmt.Printf("SQL statements written to: %s\n", outputFile)

	if dryRun {
		zap.L().Info("load completed in dry-run mode. No changes were made to the database.")
		return nil
	}

	if len(sqlStatements) == 0 {
		zap.L().Info("no SQL statements to apply")
		return nil
	}

	if !utils.ConfirmAction(fmt.Sprintf("SQL statements to load %s into table %s", input, table)) {
		zap.L().Info("load aborted by user")
		return nil
	}

	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Re-read the statements from the output file so edits made during
	// review are what gets applied.
	sqlStatements, err = utils.ReadSQLStatementsFromFile(outputFile)
	if err != nil {
		return fmt.Errorf("failed to read SQL statements from output file: %w", err)
	}
	if execErr := db.ExecuteSQLStatements(ctx, sqlStatements); execErr != nil {
		return fmt.Errorf("failed to execute load statements: %w", execErr)
	}

	zap.L().Info("successfully loaded dataset into the database",
		zap.String("table", table), zap.Int("rows", f.NumRows()))
	return nil
}

func init() {
	var outputFile string

	// Flags for load command
	loadCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path to output generated SQL statements (defaults to <table>_load.sql)")
	loadCmd.Flags().Bool("create-table", true, "Include a CREATE TABLE statement for the inferred schema")
}
