package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/profile"
)

func newRunCmd() *cobra.Command {
	var (
		profilePath string
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one search and print the ranked jobs as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, profilePath, outPath)
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "search profile JSON file (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "where to write the ranked jobs; - for stdout")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func runSearch(cmd *cobra.Command, profilePath, outPath string) (err error) {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(appInstance, &err)
	logger := appInstance.GetLogger()

	p, err := profile.Load(profilePath)
	if err != nil {
		return err
	}

	res, err := appInstance.GetRunner().Execute(cmd.Context(), p)
	if err != nil {
		return fmt.Errorf("run search: %w", err)
	}

	if pub := appInstance.GetPublisher(); pub != nil {
		uri, err := pub.Publish(cmd.Context(), res.Summary, res.Records)
		if err != nil {
			return fmt.Errorf("publish run: %w", err)
		}
		if uri != "" {
			logger.Info("run published", zap.String("run_id", res.Summary.RunID), zap.String("uri", uri))
		}
	}

	return writeRecords(cmd.OutOrStdout(), outPath, res.Records)
}

func writeRecords(stdout io.Writer, outPath string, records []crawler.JobRecord) (err error) {
	if records == nil {
		records = []crawler.JobRecord{}
	}
	w := stdout
	if outPath != "" && outPath != "-" {
		f, cerr := os.Create(outPath) //nolint:gosec // path comes from the operator
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write jobs: %w", err)
	}
	return nil
}
