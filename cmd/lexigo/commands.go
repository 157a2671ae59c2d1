package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lexigo"
	"github.com/hupe1980/lexigo/model"
)

func newAddCmd(g *globalFlags) *cobra.Command {
	var upsert bool
	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Add JSON records, one object per line (stdin if no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			added, failed, err := addRecords(cmd, db, in, upsert)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, failed %d\n", added, failed)
			if failed > 0 {
				return fmt.Errorf("%d records failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&upsert, "upsert", "u", false, "replace documents whose id already exists")
	return cmd
}

func addRecords(cmd *cobra.Command, db *lexigo.Lexigo[record], in io.Reader, upsert bool) (added, failed int, err error) {
	ctx := cmd.Context()
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", line, err)
			failed++
			continue
		}
		if upsert {
			_, err = db.UpsertDocument(ctx, rec)
		} else {
			_, err = db.AddDocument(ctx, rec)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", line, err)
			failed++
			continue
		}
		added++
	}
	return added, failed, sc.Err()
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by token prefixes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			sb := db.Search(args[0])
			if limit > 0 {
				sb = sb.Limit(limit)
			}
			results, err := sb.Execute(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if err := enc.Encode(struct {
					ID       model.DocID      `json:"docId"`
					External model.ExternalID `json:"id"`
					Score    int              `json:"score"`
					Document record           `json:"document"`
				}{r.ID, r.ExternalID, r.Score, r.Document}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default from config)")
	return cmd
}

func newGetCmd(g *globalFlags) *cobra.Command {
	var internal bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one document by external id (or internal id with --internal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			var (
				rec record
				ok  bool
			)
			if internal {
				n, perr := strconv.ParseUint(args[0], 10, 32)
				if perr != nil {
					return fmt.Errorf("internal id: %w", perr)
				}
				rec, ok, err = db.GetByInternalID(cmd.Context(), model.DocID(n))
			} else {
				rec, ok, err = db.GetByExternalID(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: %w", args[0], lexigo.ErrNotFound)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&internal, "internal", false, "treat the argument as an internal id")
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document by external id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := db.DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%s: %w", args[0], lexigo.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document, field and token counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "documents\t%d\n", st.Documents)
			fmt.Fprintf(w, "fields\t%d\n", st.Fields)
			fmt.Fprintf(w, "tokens\t%d\n", st.Tokens)
			fmt.Fprintf(w, "next id\t%d\n", st.NextID)
			return w.Flush()
		},
	}
}

func newFieldsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the field dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.open()
			if err != nil {
				return err
			}
			defer db.Close()

			fields, err := db.Fields(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range fields {
				fmt.Fprintf(w, "%d\t%s\n", f.ID, f.Name)
			}
			return w.Flush()
		},
	}
}
