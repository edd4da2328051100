package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"tumbledee/pkg/auth"
	"tumbledee/pkg/checkpoint"
	"tumbledee/pkg/config"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/ratelimit"
	"tumbledee/pkg/scraper"
	"tumbledee/pkg/storage"
	"tumbledee/pkg/tumblr"
	"tumbledee/pkg/ui"
)

var (
	// Download flags
	likes        bool
	verbosity    int
	outDir       string
	number       int
	offset       int
	concurrent   int
	rateLimit    int
	resume       bool
	noCheckpoint bool
)

func init() {
	rootCmd.Flags().BoolVar(&likes, "likes", false, "download the blog's liked posts instead of its own posts")
	rootCmd.Flags().CountVarP(&verbosity, "verbosity", "v", "increase log detail; -vv also prints every response tree")
	rootCmd.Flags().StringVarP(&outDir, "outdir", "o", "", "output directory (default is the blog name)")
	rootCmd.Flags().IntVarP(&number, "number", "n", 1, fmt.Sprintf("number of posts to fetch, at most %d", tumblr.MaxTotalPosts))
	rootCmd.Flags().IntVarP(&offset, "offset", "s", 0, "number of posts to skip")
	rootCmd.Flags().IntVar(&concurrent, "concurrent", 1, "number of images downloaded in parallel (1-10)")
	rootCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "maximum requests per minute, 0 for no limit")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "continue from the checkpoint of an interrupted run")
	rootCmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "do not record progress for --resume")
}

func runScrape(cmd *cobra.Command, args []string) error {
	if number < 0 || offset < 0 {
		return errors.NewConfigError("--number and --offset must not be negative", nil)
	}

	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return errors.NewConfigError("failed to load configuration", err)
	}

	cfg.Logging.Level = logger.LevelForVerbosity(verbosity, cfg.Logging.Level)
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return errors.NewConfigError("failed to initialize logging", err)
	}
	log := logger.GetLogger()

	creds, err := auth.LoadCredentials(cfg.Tumblr.CredentialsFile)
	if err != nil {
		log.WithError(err).Error("cannot read API key")
		return err
	}

	client := tumblr.NewClient(creds.APIKey, tumblr.Options{
		BaseURL:       cfg.Tumblr.APIBaseURL,
		DefaultDomain: cfg.Tumblr.DefaultDomain,
		Timeout:       cfg.Download.RequestTimeout,
		Limiter:       ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
	}, log)

	blog := client.Blog(args[0])
	dir := outDir
	if dir == "" {
		dir = filepath.Join(cfg.Output.BaseDirectory, tumblr.DirName(blog))
	}

	store, err := storage.NewManager(dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Error("cannot create output directory")
		return err
	}

	s := scraper.New(scraper.RunConfig{
		Target:  tumblr.Target{Blog: blog, Likes: likes},
		Number:  number,
		Offset:  offset,
		Resume:  resume,
		Workers: cfg.Download.ConcurrentDownloads,
	}, client, store, log)

	if cfg.Checkpoint.Enabled {
		cps, err := checkpoint.Open(cfg.Checkpoint.Path, log)
		if err != nil {
			if resume {
				return errors.NewStorageError("cannot open checkpoint database", err)
			}
			log.WithError(err).Warn("checkpoints disabled for this run")
		} else {
			defer cps.Close()
			s.SetCheckpoints(cps)
		}
	} else if resume {
		log.Warn("--resume has no effect with checkpoints disabled")
	}

	if verbosity >= 2 {
		s.SetDumpWriter(os.Stdout)
	}

	summary, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}

	ui.PrintInfo(blog, fmt.Sprintf("%d images and %d text posts saved to %s as %d files (%s)",
		summary.ImagesSaved, summary.TextPosts, store.GetOutputDir(), store.GetSavedCount(), summary.StopReason))
	if summary.ImagesReplaced > 0 {
		ui.PrintWarning(fmt.Sprintf("%d images replaced an earlier image with the same file name", summary.ImagesReplaced))
	}
	return nil
}
