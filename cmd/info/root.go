package info

import (
	"context"
	"fmt"
	"time"

	"github.com/penpenguin/PetaTas-sub000/cmd/util"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
	"github.com/spf13/cobra"
)

var (
	store *checklist.Store

	// InfoCmd represents the info command
	InfoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show storage usage of the configured backend",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			var err error
			store, err = util.GetStore()
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return store.Close(ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			usage := store.StorageInfo(cmd.Context())
			fmt.Printf("bytes used: %d\n", usage.BytesUsed)
			fmt.Printf("bytes available: %d\n", usage.BytesAvailable)
			fmt.Printf("percent used: %.1f%%\n", usage.PercentUsed)
			if store.NearLimit(cmd.Context()) {
				fmt.Println("warning: storage is above 80% of its quota")
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)
}
