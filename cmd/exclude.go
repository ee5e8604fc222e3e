package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/source"
)

const excludeActor = "operator"

var excludeCmd = &cobra.Command{
	Use:   "exclude <listing-id...>",
	Short: "Append listings to the exclude file so they are never recommended",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exclude(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(excludeCmd)

	excludeCmd.Flags().StringP("exclude-file", "e", "", "file with excluded listings (default search.exclude-file)")
	excludeCmd.Flags().StringP("reason", "r", "", "reason stored next to the listing")

	viper.BindPFlag("search.exclude-file", excludeCmd.Flags().Lookup("exclude-file"))
}

func exclude(cmd *cobra.Command, ids []string) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	excludeFile := config.Search.ExcludeFile
	if excludeFile == "" {
		logger.Fatal("exclude file is not configured",
			zap.String("hint", "pass --exclude-file or set search.exclude-file"),
		)
	}

	src, err := source.New(config.Storage.Source, config.Storage.Jobs)
	if err != nil {
		logger.Fatal("opening the listing source", zap.Error(err))
	}

	found, err := resolveListings(ctx, src, ids)
	if err != nil {
		logger.Fatal("resolving listings", zap.Error(err))
	}

	excluded, err := listing.ExcludedFromFile(excludeFile)
	if err != nil {
		logger.Fatal("reading exclude file", zap.Error(err))
	}

	known := make(map[string]struct{}, len(excluded.Items))
	for _, id := range excluded.IDs() {
		known[id] = struct{}{}
	}
	fresh := make([]listing.Listing, 0, len(found))
	for _, l := range found {
		if _, ok := known[l.ID]; ok {
			logger.Info("already excluded", zap.String("listing_id", l.ID))
			continue
		}
		fresh = append(fresh, l)
	}

	reason := cmd.Flag("reason").Value.String()
	excluded.Append(listing.New(fresh).ToExcluded(excludeActor, reason))

	if err := excluded.ToFile(excludeFile); err != nil {
		logger.Fatal("writing exclude file", zap.Error(err))
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", len(fresh)))
}

// resolveListings looks up every id; unknown ids are kept with only the id set
// so that listings which left the source can still be excluded.
func resolveListings(ctx context.Context, src source.Source, ids []string) ([]listing.Listing, error) {
	found := make([]listing.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := src.FindByID(ctx, id)
		switch {
		case errors.Is(err, source.ErrNotFound):
			found = append(found, listing.Listing{ID: id})
		case err != nil:
			return nil, fmt.Errorf("find %s: %w", id, err)
		default:
			found = append(found, *l)
		}
	}
	return found, nil
}
