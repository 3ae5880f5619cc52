package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dbbind/clickhouse/chtest"
	"dbbind/engine"
	"dbbind/internal/bind"
	"dbbind/internal/codegen"
	"dbbind/internal/config"
	"dbbind/internal/locate"
	"dbbind/internal/manifest"
	"dbbind/internal/output"
)

const defaultManifest = "dbbind.toml"

// projectRoot prefers the --root flag, then the configured root
// (DBBIND_ROOT, possibly from .env), then the go command.
func projectRoot(ctx context.Context, cfg *config.Config, flag string) (string, error) {
	switch {
	case flag != "":
		return filepath.Abs(flag)
	case cfg != nil && cfg.Root != "":
		return filepath.Abs(cfg.Root)
	}
	return locate.ProjectRoot(ctx)
}

func resolveManifest(ctx context.Context, cfg *config.Config, manifestPath, root, outDir string) (*bind.Project, error) {
	m, err := manifest.ParseFile(manifestPath)
	if err != nil {
		return nil, err
	}
	root, err = projectRoot(ctx, cfg, root)
	if err != nil {
		return nil, err
	}
	slog.Debug("resolving manifest", slog.String("manifest", manifestPath), slog.String("root", root))
	return bind.Resolve(m, bind.Options{Root: root, OutputDir: outDir, Logger: slog.Default()})
}

func generateCmd(cfg *config.Config) *cobra.Command {
	var (
		manifestPath string
		outDir       string
		root         string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate table bindings from a manifest",
		Long: `Generate resolves every table declared in the manifest, locates its schema
file, classifies its engine and writes the registry bindings as Go source.
It is meant to be run from a go:generate directive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := resolveManifest(cmd.Context(), cfg, manifestPath, root, outDir)
			if err != nil {
				return err
			}
			written, err := codegen.Write(p, slog.Default())
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "Manifest file (.toml, .yaml or .yml)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory, overrides the manifest")
	cmd.Flags().StringVar(&root, "root", "", "Project root schema directories are relative to")
	return cmd
}

func inspectCmd(cfg *config.Config) *cobra.Command {
	var (
		manifestPath string
		format       string
		root         string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the resolved bindings of a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}
			p, err := resolveManifest(cmd.Context(), cfg, manifestPath, root, "")
			if err != nil {
				return err
			}
			out, err := formatter.FormatProject(p)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "Manifest file (.toml, .yaml or .yml)")
	cmd.Flags().StringVarP(&format, "format", "f", "human", "Output format: human, json, summary or sql")
	cmd.Flags().StringVar(&root, "root", "", "Project root schema directories are relative to")
	return cmd
}

func locateCmd(cfg *config.Config) *cobra.Command {
	var (
		dir      string
		database string
		table    string
		root     string
	)

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Find the schema file that creates a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := projectRoot(cmd.Context(), cfg, root)
			if err != nil {
				return err
			}
			path, err := locate.New(r, slog.Default()).Find(dir, database, table)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Schema directory, relative to the project root")
	cmd.Flags().StringVar(&database, "database", "", "Database name")
	cmd.Flags().StringVar(&table, "table", "", "Table name")
	cmd.Flags().StringVar(&root, "root", "", "Project root")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file.sql>...",
		Short: "Print the engine kind of schema files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				kind, err := engine.ClassifyFile(path)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(cmd.OutOrStdout(), kind)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, kind)
			}
			return nil
		},
	}
}

func rewriteCmd() *cobra.Command {
	var (
		database string
		table    string
		kindName string
		seed     uint32
	)

	cmd := &cobra.Command{
		Use:   "rewrite <file.sql>",
		Short: "Print the test shadow of a schema file",
		Long: `Rewrite prints the DDL a test run executes for the table: databases are
prefixed with test_ and, unless the engine is Distributed, replication paths
get a /test<seed>/ segment. The engine is classified from the file when
--engine is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read schema file: %w", err)
			}

			var kind engine.Kind
			if kindName != "" {
				kind, err = engine.ParseKind(kindName)
			} else {
				kind, err = engine.Classify(string(content))
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), chtest.Rewrite(string(content), database, table, kind, seed))
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Database name")
	cmd.Flags().StringVar(&table, "table", "", "Table name")
	cmd.Flags().StringVar(&kindName, "engine", "", "Engine kind, classified from the file when empty")
	cmd.Flags().Uint32Var(&seed, "seed", 0, "Seed inserted into replication paths")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
