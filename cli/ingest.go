package cli

import (
	"io/fs"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.universe.tf/rendertrace/db"
	"go.universe.tf/rendertrace/scanner"
)

var (
	ingestWatch       time.Duration
	ingestMetricsAddr string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest ROOT...",
	Short: "Replay event logs under ROOTs into stored trees",
	Long: `Scans ROOTs for *.jsonl event logs that are new or changed since they were
last ingested, replays them and stores the resulting trees.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().DurationVar(&ingestWatch, "watch", 0, "rescan at this interval instead of exiting after one pass")
	ingestCmd.Flags().StringVar(&ingestMetricsAddr, "metrics-addr", "", "serve /metrics and pprof on this address")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestMetricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(ingestMetricsAddr, nil); err != nil {
				log.Error().Err(err).Str("addr", ingestMetricsAddr).Msg("Metrics server stopped")
			}
		}()
	}

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	rs, err := roots(args)
	if err != nil {
		return err
	}

	fsys := os.DirFS("/")
	for {
		log.Info().Strs("roots", rs).Msg("Scanning roots")
		if err := ingestOnce(d, fsys, rs); err != nil {
			if ingestWatch == 0 {
				return err
			}
			log.Error().Err(err).Msg("Error during scan")
		}
		if ingestWatch == 0 {
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return nil
		case <-time.After(ingestWatch):
		}
	}
}

func ingestOnce(d *db.DB, fsys fs.FS, roots []string) error {
	changed, err := scanner.Scan(d, fsys, roots)
	if err != nil {
		return err
	}
	for _, p := range changed {
		if _, err := scanner.Ingest(d, fsys, p); err != nil {
			log.Error().Err(err).Str("path", p).Msg("Ingesting event log failed")
		}
	}
	return nil
}

// roots makes rs relative to the filesystem root, as io/fs paths.
func roots(rs []string) ([]string, error) {
	ret := make([]string, 0, len(rs))
	for _, r := range rs {
		root, err := filepath.Abs(r)
		if err != nil {
			return nil, err
		}
		root = filepath.ToSlash(root)[1:]
		if root == "" {
			root = "."
		}
		ret = append(ret, root)
	}
	return ret, nil
}
