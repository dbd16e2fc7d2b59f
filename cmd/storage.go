package cmd

import (
	"context"
	"fmt"
	"log"

	"trackvault/config"
	"trackvault/logger"
	"trackvault/storage"

	"github.com/spf13/cobra"
)

var (
	storagePrefix string
	storageStats  bool
	storageDelete bool
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect and manage the object storage bucket",
	Long:  `List objects, show bucket statistics, or delete objects under a prefix. Useful for finding and cleaning up orphaned blobs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}

		ctx := context.Background()

		switch {
		case storageDelete:
			if storagePrefix == "" {
				log.Fatal("--delete requires --prefix")
			}
			deleted, err := store.DeletePrefix(ctx, storagePrefix)
			if err != nil {
				log.Fatalf("Failed to delete objects under %q (%d removed): %v", storagePrefix, deleted, err)
			}
			fmt.Printf("Deleted %d objects under %q\n", deleted, storagePrefix)

		case storageStats:
			count, totalSize, err := store.BucketStats(ctx, storagePrefix)
			if err != nil {
				log.Fatalf("Failed to collect bucket stats: %v", err)
			}
			fmt.Printf("Objects: %d\nTotal size: %d bytes\n", count, totalSize)

		default:
			objects, err := store.ListObjects(ctx, storagePrefix)
			if err != nil {
				log.Fatalf("Failed to list objects: %v", err)
			}
			for _, obj := range objects {
				fmt.Printf("%12d  %s\n", obj.Size, obj.Key)
			}
			fmt.Printf("%d objects\n", len(objects))
		}
	},
}

func init() {
	storageCmd.Flags().StringVar(&storagePrefix, "prefix", "", "object key prefix to operate on")
	storageCmd.Flags().BoolVar(&storageStats, "stats", false, "show object count and total size")
	storageCmd.Flags().BoolVar(&storageDelete, "delete", false, "delete all objects under --prefix")
	rootCmd.AddCommand(storageCmd)
}
