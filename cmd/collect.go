package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/browser"
	"github.com/sells-group/prospect-cli/internal/collect"
	"github.com/sells-group/prospect-cli/internal/export"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/validate"
)

var collectFlags struct {
	category  string
	area      string
	country   string
	count     int
	mode      string
	xlsxPath  string
	smsPath   string
	emailPath string
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		req := model.CollectionRequest{
			Category:    collectFlags.category,
			Area:        collectFlags.area,
			Country:     collectFlags.country,
			TargetCount: collectFlags.count,
			Mode:        model.QualificationMode(collectFlags.mode),
		}

		validator, err := newValidator()
		if err != nil {
			return err
		}

		collector := collect.New(
			browser.NewEngine(cfg.Browser),
			&cfg.Collect,
			cfg.Validate.Country,
			validator,
			logEmitter{},
		)

		result, err := collector.Run(ctx, req)
		if err != nil {
			return err
		}

		if err := writeExports(result, req); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "collect: encode result")
		}
		return nil
	},
}

// writeExports writes whichever export files were requested by flags.
func writeExports(result *model.Result, req model.CollectionRequest) error {
	if collectFlags.xlsxPath == "" && collectFlags.smsPath == "" && collectFlags.emailPath == "" {
		return nil
	}

	rows := export.Enrich(result.Prospects, req, time.Now())
	if collectFlags.xlsxPath != "" {
		if err := export.WriteXLSX(rows, collectFlags.xlsxPath); err != nil {
			return err
		}
		zap.L().Info("wrote spreadsheet", zap.String("path", collectFlags.xlsxPath))
	}
	if collectFlags.smsPath != "" {
		if err := export.WriteSMSCSV(rows, collectFlags.smsPath); err != nil {
			return err
		}
		zap.L().Info("wrote sms list", zap.String("path", collectFlags.smsPath))
	}
	if collectFlags.emailPath != "" {
		if err := export.WriteEmailCSV(rows, collectFlags.emailPath); err != nil {
			return err
		}
		zap.L().Info("wrote email list", zap.String("path", collectFlags.emailPath))
	}
	return nil
}

// newValidator builds the contact validator from config.
func newValidator() (*validate.Validator, error) {
	var opts []validate.Option
	if cfg.Validate.VerifyMX {
		opts = append(opts, validate.WithMXVerification())
	}
	return validate.New(opts...)
}

// logEmitter routes progress events to the global logger.
type logEmitter struct{}

func (logEmitter) Log(level, message string) {
	switch level {
	case "warning", "error":
		zap.L().Warn(message)
	default:
		zap.L().Info(message)
	}
}

func (logEmitter) Progress(found, target int) {
	zap.L().Debug("progress", zap.Int("found", found), zap.Int("target", target))
}

func init() {
	collectCmd.Flags().StringVar(&collectFlags.category, "category", "", "business category to search, e.g. plumbers")
	collectCmd.Flags().StringVar(&collectFlags.area, "area", "", "suburb, city, or postal code")
	collectCmd.Flags().StringVar(&collectFlags.country, "country", "Australia", "country for the search query")
	collectCmd.Flags().IntVar(&collectFlags.count, "count", 10, "qualified prospects to collect (0 = collect everything)")
	collectCmd.Flags().StringVar(&collectFlags.mode, "mode", "", "qualification mode: both or either (default both)")
	collectCmd.Flags().StringVar(&collectFlags.xlsxPath, "xlsx", "", "write the full prospect spreadsheet to this path")
	collectCmd.Flags().StringVar(&collectFlags.smsPath, "csv-sms", "", "write a Phone,Name CSV to this path")
	collectCmd.Flags().StringVar(&collectFlags.emailPath, "csv-email", "", "write an Email,Name CSV to this path")
	rootCmd.AddCommand(collectCmd)
}
