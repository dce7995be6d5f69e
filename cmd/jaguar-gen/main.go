package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"jaguar-gen/config"
	"jaguar-gen/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	// Database drivers

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

type cliOptions struct {
	configFile     string
	dataSourceFile string
	outputDir      string
	fetcherType    string
	dataDir        string
	dbDSN          string
	vars           map[string]string
	s3Bucket       string
	s3Prefix       string
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

func run(output io.Writer, args []string) error {
	cmd := newRootCmd(output)
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func newRootCmd(output io.Writer) *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "jaguar-gen",
		Short: "Generate Excel workbooks from report definitions",
		Long: `jaguar-gen loads the datasets a report declares and renders them into an
xlsx workbook, either by expanding the named cells and tables of a template
or by writing one sheet per dataset.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd.Context(), output, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "./report.yaml", "Path to the report definition")
	flags.StringVar(&opts.dataSourceFile, "datasources", "", "Path to a data source bundle (optional)")
	flags.StringVar(&opts.outputDir, "output", "./output", "Directory for output files")
	flags.StringVar(&opts.fetcherType, "fetcher", "csv", "Fetcher for datasets without a source: csv, dynamodb, mysql, postgres")
	flags.StringVar(&opts.dataDir, "data-dir", "./data", "Directory holding <table>.csv files")
	flags.StringVar(&opts.dbDSN, "db-dsn", "", "Database connection string (DSN) for the mysql/postgres fetcher")
	flags.StringToStringVar(&opts.vars, "var", nil, "Report variable as key=value (repeatable)")
	flags.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket name for uploading output")
	flags.StringVar(&opts.s3Prefix, "s3-prefix", "jaguar-gen-output", "S3 prefix (folder) for uploaded files")
	return cmd
}

func generate(ctx context.Context, output io.Writer, opts *cliOptions) (err error) {
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	var external map[string]*config.DataSourceConfig
	if opts.dataSourceFile != "" {
		slog.Info("Loading data source bundle", "file", opts.dataSourceFile)
		external, err = config.LoadDataSourcesBundle(opts.dataSourceFile)
		if err != nil {
			return err
		}
	}

	slog.Info("Loading report", "file", opts.configFile)
	report, dataSources, err := config.LoadReportConfigWithDataSources(opts.configFile, external)
	if err != nil {
		return err
	}
	if len(dataSources) > 0 {
		slog.Info("Loaded data sources", "count", len(dataSources))
	}
	if report.WorkDir == "" {
		report.WorkDir = filepath.Dir(opts.configFile)
	}
	registry := config.NewMemoryConfigRegistry(report.Datasets, dataSources)

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg == nil {
			// handles env vars, shared config and IAM roles
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
			}
			awsCfg = &cfg
		}
		return *awsCfg, nil
	}

	fetcher, err := newFetcher(opts, report, registry, loadAWS)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := fetcher.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	slog.Info("Processing report", "id", report.Id, "label", report.Label, "datasets", len(report.Datasets))
	genCtx := core.NewGenerationContext(report, registry, fetcher, opts.vars, time.Now())
	path, out, err := core.NewGenerator(genCtx).GenerateFile(ctx, opts.outputDir)
	if err != nil {
		return fmt.Errorf("generate report %s: %w", report.Id, err)
	}
	slog.Info("Successfully generated", "id", report.Id, "path", path)

	if opts.s3Bucket != "" {
		cfg, err := loadAWS()
		if err != nil {
			return err
		}
		uploader := core.NewS3Uploader(cfg, opts.s3Bucket, opts.s3Prefix)
		key, err := uploader.Upload(ctx, filepath.Base(path), out)
		if err != nil {
			return err
		}
		slog.Info("Successfully uploaded to S3", "bucket", opts.s3Bucket, "key", key)
	}
	return nil
}

// newFetcher routes datasets to their declared source; --fetcher decides for the rest.
func newFetcher(opts *cliOptions, report *config.ReportConfig, registry config.Provider, loadAWS func() (aws.Config, error)) (*core.RoutingFetcher, error) {
	router := &core.RoutingFetcher{
		CSV:      core.NewCsvDataFetcher(opts.dataDir),
		Provider: registry,
	}

	needsDynamoDB := opts.fetcherType == "dynamodb"
	for _, ds := range report.Datasets {
		if ds.Source == config.SourceDynamoDB {
			needsDynamoDB = true
		}
	}
	if needsDynamoDB {
		slog.Info("Initializing DynamoDB Data Fetcher")
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		router.DynamoDB = core.NewDynamoDBDataFetcher(cfg)
	}

	switch opts.fetcherType {
	case "csv":
		slog.Info("Initializing CSV Data Fetcher", "dir", opts.dataDir)
		router.Default = router.CSV
	case "dynamodb":
		router.Default = router.DynamoDB
	case "mysql", "postgres":
		if opts.dbDSN == "" {
			return nil, fmt.Errorf("db-dsn is required for %s fetcher", opts.fetcherType)
		}
		slog.Info("Initializing SQL Data Fetcher", "type", opts.fetcherType)
		f, err := core.OpenSQLDataSource(&config.DataSourceConfig{Name: opts.fetcherType, Driver: opts.fetcherType, DSN: opts.dbDSN})
		if err != nil {
			return nil, err
		}
		router.Default = f
	default:
		return nil, fmt.Errorf("unknown fetcher %q", opts.fetcherType)
	}
	return router, nil
}
