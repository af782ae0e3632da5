package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"bookexchange/internal/book"
	"bookexchange/internal/config"
	"bookexchange/internal/platform/logger"
	"bookexchange/internal/store"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	genres  = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}
	authors = []string{"Ursula K. Le Guin", "Frank Herbert", "Jane Austen", "Toni Morrison", "Italo Calvino", "Mary Beard", "Carl Sagan", "Octavia Butler"}
	words   = []string{"Journey", "Adventure", "Discovery", "Mystery", "Legacy", "Empire", "Harbor", "Garden", "Frontier", "River"}
)

type seedOptions struct {
	dsn     string
	dbName  string
	timeout time.Duration
	count   int
	owners  int
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo book-exchange listings",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
			if opts.dsn == "" {
				opts.dsn = os.Getenv("DB_DSN")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "store DSN (defaults to DB_DSN)")
	cmd.Flags().StringVar(&opts.dbName, "db-name", "bookexchange", "MongoDB database name")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-operation store timeout")
	cmd.Flags().IntVar(&opts.count, "count", 100, "number of listings to create")
	cmd.Flags().IntVar(&opts.owners, "owners", 10, "number of distinct owners")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts seedOptions) error {
	if opts.dsn == "" {
		return fmt.Errorf("no DSN: set DB_DSN or pass --dsn")
	}
	if opts.count < 1 || opts.owners < 1 {
		return fmt.Errorf("--count and --owners must be positive")
	}

	log := logger.New(os.Stderr, config.LogConfig{Level: "info", Format: "text"})
	repo, closeStore, err := store.Open(ctx, config.DatabaseConfig{
		DSN:     opts.dsn,
		Name:    opts.dbName,
		Timeout: opts.timeout,
	}, log)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := seedBooks(ctx, book.NewService(repo, book.Options{}), opts, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return err
	}
	cmd.Printf("Successfully created %d books!\n", created)
	return nil
}

// seedBooks creates opts.count listings spread across opts.owners owners.
func seedBooks(ctx context.Context, svc *book.Service, opts seedOptions, rng *rand.Rand) (int, error) {
	for i := 0; i < opts.count; i++ {
		title := fmt.Sprintf("The %s of %s", words[rng.Intn(len(words))], words[rng.Intn(len(words))])
		author := authors[rng.Intn(len(authors))]
		genre := genres[rng.Intn(len(genres))]
		owner := fmt.Sprintf("owner-%03d", i%opts.owners)
		year := 1950 + rng.Intn(75)
		available := rng.Intn(4) != 0

		_, err := svc.Create(ctx, book.Patch{
			Title:         &title,
			Author:        &author,
			Genre:         &genre,
			PublishedYear: &year,
			OwnerID:       &owner,
			IsAvailable:   &available,
		})
		if err != nil {
			return i, fmt.Errorf("create book %d: %w", i+1, err)
		}
	}
	return opts.count, nil
}
