// Command ledgerctl inspects and maintains a stored ledger from the shell.
//
// Usage:
//
//	ledgerctl import [-save] <file>   validate a snapshot file and report on it
//	ledgerctl export [-o file]        write the stored ledger as a snapshot
//	ledgerctl balances                print balances of the stored ledger
//	ledgerctl history [-n 20]         list saved revisions (sqlite backend)
//	ledgerctl revert <revision>       make an older revision current (sqlite backend)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/snapshot"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/backend"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.SetupWith(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := runCommand(context.Background(), cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ledgerctl <import|export|balances|history|revert> [flags]")
}

func runCommand(ctx context.Context, cfg *config.Config, name string, args []string, out io.Writer) error {
	restorer := snapshot.NewRestorer(snapshot.WithCategories(cfg.CategoryProvider()))

	switch name {
	case "import":
		return cmdImport(ctx, cfg, restorer, args, out)
	case "export":
		return cmdExport(ctx, cfg, restorer, args, out)
	case "balances":
		return cmdBalances(ctx, cfg, restorer, out)
	case "history":
		return cmdHistory(ctx, cfg, args, out)
	case "revert":
		return cmdRevert(ctx, cfg, restorer, args, out)
	}
	usage()
	return fmt.Errorf("unknown command %q", name)
}

func openStore(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer) (*storage.SnapshotStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	blobs, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewSnapshotStore(blobs, cfg.SnapshotKey, restorer), nil
}

func cmdImport(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	save := fs.Bool("save", false, "replace the stored ledger with the imported one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import takes exactly one file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	res, err := restorer.Restore(data)
	if err != nil {
		return err
	}
	printReport(out, res)

	if !*save {
		return nil
	}
	store, err := openStore(ctx, cfg, restorer)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, res.Snapshot); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsaved to %s backend under key %q\n", cfg.DataBackend, cfg.SnapshotKey)
	return nil
}

func cmdExport(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	path := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := loadStored(ctx, cfg, restorer)
	if err != nil {
		return err
	}
	data, err := snapshot.Export(snap)
	if err != nil {
		return err
	}
	if *path == "" {
		_, err = out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	slog.Info("Snapshot exported", "path", *path, "bytes", len(data))
	return nil
}

func cmdBalances(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer, out io.Writer) error {
	snap, err := loadStored(ctx, cfg, restorer)
	if err != nil {
		return err
	}
	printBalances(out, snap)
	return nil
}

// loadStored returns the stored ledger, empty when nothing was saved yet.
func loadStored(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer) (models.Snapshot, error) {
	store, err := openStore(ctx, cfg, restorer)
	if err != nil {
		return models.Snapshot{}, err
	}
	defer store.Close()

	res, err := store.Load(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	if res == nil {
		return models.Snapshot{}, nil
	}
	return res.Snapshot, nil
}

func openHistory(ctx context.Context, cfg *config.Config) (*sqlite.SQLiteStore, error) {
	if cfg.DataBackend != config.BackendSQLite {
		return nil, fmt.Errorf("revision history needs the %s backend, configured %s", config.BackendSQLite, cfg.DataBackend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.(*sqlite.SQLiteStore), nil
}

func cmdHistory(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of revisions to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	revisions, err := store.History(ctx, cfg.SnapshotKey, *limit)
	if err != nil {
		return err
	}
	if len(revisions) == 0 {
		fmt.Fprintln(out, "no saved revisions")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REVISION\tSAVED AT\tBYTES")
	for _, r := range revisions {
		fmt.Fprintf(w, "%d\t%s\t%d\n", r.ID, r.SavedAt.Format("2006-01-02 15:04:05"), r.Size)
	}
	return w.Flush()
}

func cmdRevert(ctx context.Context, cfg *config.Config, restorer *snapshot.Restorer, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("revert takes exactly one revision id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid revision id %q", args[0])
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	data, err := store.LoadRevision(ctx, id)
	if err != nil {
		store.Close()
		return err
	}
	res, err := restorer.Restore(data)
	if err != nil {
		store.Close()
		return fmt.Errorf("revision %d is not restorable: %w", id, err)
	}

	snapshots := storage.NewSnapshotStore(store, cfg.SnapshotKey, restorer)
	defer snapshots.Close()
	if err := snapshots.Save(ctx, res.Snapshot); err != nil {
		return err
	}
	fmt.Fprintf(out, "revision %d is now current\n", id)
	printBalances(out, res.Snapshot)
	return nil
}

func printReport(out io.Writer, res *snapshot.Result) {
	fmt.Fprintf(out, "friends:      %d\n", len(res.Snapshot.Friends))
	fmt.Fprintf(out, "transactions: %d\n", len(res.Snapshot.Transactions))
	fmt.Fprintf(out, "skipped:      %d\n", len(res.SkippedTransactions))
	for _, s := range res.SkippedTransactions {
		fmt.Fprintf(out, "  #%d: %s\n", s.Index, s.Reason)
	}
	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(out, "diagnostics:")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(out, "  %s\n", d)
		}
	}
	fmt.Fprintln(out)
	printBalances(out, res.Snapshot)
}

func printBalances(out io.Writer, snap models.Snapshot) {
	balances := calculator.ComputeBalances(snap.Transactions)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FRIEND\tBALANCE\t")
	for _, f := range snap.Friends {
		b := calculator.BalanceOf(balances, f.ID)
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, money.Format(b), direction(b))
	}
	_ = w.Flush()

	summary := calculator.Summarize(balances)
	fmt.Fprintf(out, "\nowed to you %s, you owe %s, net %s\n",
		money.Format(summary.OwedToYou), money.Format(summary.YouOwe), money.Format(summary.Net))
}

func direction(b money.Cents) string {
	switch {
	case b > 0:
		return "owes you"
	case b < 0:
		return "you owe"
	}
	return "settled up"
}
