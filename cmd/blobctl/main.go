package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/blobtasks/internal/storage"
	"github.com/andresuchdata/blobtasks/internal/taskrun"
	"github.com/andresuchdata/blobtasks/internal/tasks"
	"github.com/andresuchdata/blobtasks/pkg/logger"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "endpoint",
			Usage:    "Storage service endpoint (host:port)",
			Required: true,
			EnvVars:  []string{"STORAGE_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:     "access-key",
			Usage:    "Storage access key",
			Required: true,
			EnvVars:  []string{"STORAGE_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:     "secret-key",
			Usage:    "Storage secret key",
			Required: true,
			EnvVars:  []string{"STORAGE_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Storage region",
			Value:   "us-east-1",
			EnvVars: []string{"STORAGE_REGION"},
		},
		&cli.BoolFlag{
			Name:    "use-ssl",
			Usage:   "Use TLS when talking to the storage service",
			Value:   true,
			EnvVars: []string{"STORAGE_USE_SSL"},
		},
		&cli.IntFlag{
			Name:    "retry-attempts",
			Usage:   "Retries after a failed task attempt",
			Value:   3,
			EnvVars: []string{"TASK_RETRY_ATTEMPTS"},
		},
		&cli.DurationFlag{
			Name:    "retry-backoff",
			Usage:   "Wait between task attempts",
			Value:   taskrun.DefaultConfig().RetryBackoff,
			EnvVars: []string{"TASK_RETRY_BACKOFF"},
		},
	}
}

func newCredentials(c *cli.Context) (storage.Credentials, error) {
	return storage.NewMinioCredentials(storage.MinioConfig{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Region:    c.String("region"),
		UseSSL:    c.Bool("use-ssl"),
	})
}

func newRunner(c *cli.Context) *taskrun.Runner {
	return taskrun.NewRunner(taskrun.Config{
		RetryAttempts: c.Int("retry-attempts"),
		RetryBackoff:  c.Duration("retry-backoff"),
	})
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a blob and write it to a file (or stdout)",
		ArgsUsage: "CONTAINER BLOB",
		Flags: append(storageFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Destination file, stdout when omitted",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected CONTAINER and BLOB arguments")
			}
			container, blob := c.Args().Get(0), c.Args().Get(1)

			creds, err := newCredentials(c)
			if err != nil {
				return err
			}

			var data []byte
			_, err = newRunner(c).Run(c.Context, "blob-download", func(ctx context.Context) error {
				var err error
				data, err = tasks.Download(ctx, container, blob, creds)
				return err
			})
			if err != nil {
				return err
			}

			if out := c.String("output"); out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return fmt.Errorf("failed to create output dir: %w", err)
				}
				return os.WriteFile(out, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload one or more files to a container",
		ArgsUsage: "FILE [FILE...]",
		Flags: append(storageFlags(),
			&cli.StringFlag{
				Name:     "container",
				Usage:    "Destination container",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "blob",
				Usage: "Destination key; only valid for a single file, generated when omitted",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Replace existing blobs with the same key",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Parallel uploads",
				Value: 4,
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("expected at least one FILE argument")
			}
			if c.String("blob") != "" && c.NArg() > 1 {
				return fmt.Errorf("--blob cannot be combined with multiple files")
			}

			creds, err := newCredentials(c)
			if err != nil {
				return err
			}
			runner := newRunner(c)
			container := c.String("container")

			g, ctx := errgroup.WithContext(c.Context)
			g.SetLimit(c.Int("concurrency"))

			for _, path := range c.Args().Slice() {
				g.Go(func() error {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}

					var key string
					_, err = runner.Run(ctx, "blob-upload", func(ctx context.Context) error {
						var err error
						key, err = tasks.Upload(ctx, data, container, creds, tasks.UploadOptions{
							Blob:      c.String("blob"),
							Overwrite: c.Bool("overwrite"),
						})
						return err
					})
					if err != nil {
						return err
					}

					log.Info().Str("file", path).Str("container", container).Str("blob", key).Msg("uploaded")
					return nil
				})
			}

			return g.Wait()
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List blob metadata in a container",
		ArgsUsage: "CONTAINER",
		Flags:     storageFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected CONTAINER argument")
			}
			container := c.Args().Get(0)

			creds, err := newCredentials(c)
			if err != nil {
				return err
			}

			var blobs []storage.BlobInfo
			_, err = newRunner(c).Run(c.Context, "blob-list", func(ctx context.Context) error {
				var err error
				blobs, err = tasks.List(ctx, container, creds)
				return err
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tLAST MODIFIED\tETAG")
			for _, blob := range blobs {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					blob.Key, blob.Size, blob.LastModified.Format("2006-01-02 15:04:05"), blob.ETag)
			}
			return w.Flush()
		},
	}
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "blobctl",
		Usage: "Run blob storage tasks from the command line",
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			downloadCommand(),
			uploadCommand(),
			listCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
