// This program performs administrative tasks against the block storage of a
// stopped node.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/app/tooling/admin/commands"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/logger"
	"go.uber.org/zap"
)

var (
	genesisPath string
	storageKind string
	dbPath      string
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := rootCmd(log).Execute(); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func rootCmd(log *zap.SugaredLogger) *cobra.Command {
	root := cobra.Command{
		Use:          "admin",
		Short:        "Inspect the blocks of a stopped node",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	root.PersistentFlags().StringVarP(&storageKind, "storage", "s", storage.KindDisk, "Kind of block storage: disk or pebble.")
	root.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "zblock/blocks/", "Path to the block storage.")

	bals := cobra.Command{
		Use:   "bals [account]",
		Short: "Print the confirmed balances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(log, func(db *database.Database) error {
				return commands.Balances(os.Stdout, args, db)
			})
		},
	}

	trans := cobra.Command{
		Use:   "trans [account]",
		Short: "Print the confirmed transactions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(log, func(db *database.Database) error {
				return commands.Transactions(os.Stdout, args, db)
			})
		},
	}

	verify := cobra.Command{
		Use:   "verify",
		Short: "Replay the chain and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(log, func(db *database.Database) error {
				return commands.Verify(os.Stdout, db)
			})
		},
	}

	root.AddCommand(&bals, &trans, &verify)

	return &root
}

// withDatabase replays the stored chain and hands the result to the command.
// Opening the database validates every stored block.
func withDatabase(log *zap.SugaredLogger, fn func(db *database.Database) error) error {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	blockStore, err := storage.Open(storageKind, dbPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	db, err := database.New(gen, blockStore, ev)
	if err != nil {
		blockStore.Close()
		return fmt.Errorf("replaying chain: %w", err)
	}
	defer db.Close()

	return fn(db)
}
