package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lexigo"
	"github.com/hupe1980/lexigo/blobstore"
	"github.com/hupe1980/lexigo/blobstore/minio"
	"github.com/hupe1980/lexigo/blobstore/s3"
)

type backupFlags struct {
	store       string
	prefix      string
	concurrency int
	rate        int64
}

func (f *backupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.store, "store", "s", "", "backup location: a directory, s3://bucket/prefix or minio://host/bucket/prefix")
	cmd.Flags().StringVar(&f.prefix, "prefix", "backups/", "blob name prefix inside the store")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 4, "files transferred in parallel")
	cmd.Flags().Int64Var(&f.rate, "rate", 0, "local disk throughput limit in bytes per second (0 = unlimited)")
	_ = cmd.MarkFlagRequired("store")
}

func (f *backupFlags) options(logger *lexigo.Logger) func(*lexigo.BackupOptions) {
	return func(o *lexigo.BackupOptions) {
		o.Prefix = f.prefix
		o.Concurrency = f.concurrency
		o.BytesPerSecond = f.rate
		o.Logger = logger
	}
}

// openStore resolves a backup location. MinIO credentials come from
// MINIO_ACCESS_KEY and MINIO_SECRET_KEY; S3 uses the default AWS chain.
func openStore(ctx context.Context, location string) (blobstore.Store, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		if u != nil && u.Scheme == "file" {
			location = u.Path
		}
		return blobstore.NewLocalStore(location), nil
	}

	prefix := strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "s3":
		return s3.New(ctx, u.Host, s3.WithPrefix(prefix))
	case "minio", "minios":
		bucket, rest, _ := strings.Cut(prefix, "/")
		if bucket == "" {
			return nil, fmt.Errorf("minio location %q has no bucket", location)
		}
		return minio.NewStatic(u.Host, os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"),
			u.Scheme == "minios", bucket, rest)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func newBackupCmd(g *globalFlags) *cobra.Command {
	f := &backupFlags{}
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy a consistent snapshot of the database to a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context(), f.store)
			if err != nil {
				return err
			}
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			info, err := db.Backup(cmd.Context(), store, f.options(g.logger()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s: %d documents, %d files, %d bytes\n",
				info.ID, info.Stats.Documents, len(info.Files), info.Size())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newRestoreCmd(g *globalFlags) *cobra.Command {
	f := &backupFlags{}
	cmd := &cobra.Command{
		Use:   "restore <backup-id> <dir>",
		Short: "Restore a backup into an empty directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), f.store)
			if err != nil {
				return err
			}
			info, err := lexigo.Restore(cmd.Context(), store, args[0], args[1], f.options(g.logger()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s (%d documents) into %s\n", info.ID, info.Stats.Documents, args[1])
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBackupsCmd(g *globalFlags) *cobra.Command {
	f := &backupFlags{}
	var remove string
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List backups in a store, or delete one with --delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context(), f.store)
			if err != nil {
				return err
			}
			if remove != "" {
				if err := lexigo.DeleteBackup(cmd.Context(), store, remove, f.options(g.logger())); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted backup %s\n", remove)
				return nil
			}

			list, err := lexigo.ListBackups(cmd.Context(), store, f.options(g.logger()))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tDOCUMENTS\tBYTES")
			for _, b := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", b.ID, b.CreatedAt.Format(time.RFC3339), b.Stats.Documents, b.Size())
			}
			return w.Flush()
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&remove, "delete", "", "delete the backup with this id")
	return cmd
}
