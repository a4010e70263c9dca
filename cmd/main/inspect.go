package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"image-recon/internal/reconcile/model"
	"image-recon/internal/reconcile/service"
)

func newInspectCommand(app *appContext) *cobra.Command {
	var keys, journeys int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print index stats, sample keys and how the first journeys resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := app.ready(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			idx, err := loadIndex(ctx, st, cfg.Run.PageSize, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, statsTable(idx.Stats()))
			if keys > 0 {
				fmt.Fprintf(out, "\nfirst %d keys:\n", keys)
				for _, k := range idx.Keys(keys) {
					fmt.Fprintln(out, "  "+k)
				}
			}
			if journeys <= 0 {
				return nil
			}

			docs, err := st.Scan(ctx, model.CollectionJourneys, "", journeys)
			if err != nil {
				return fmt.Errorf("read journeys: %w", err)
			}
			fields := cfg.Options().Roles
			for _, doc := range docs {
				printJourney(out, idx, model.JourneyFromDocument(doc.ID, doc.Data, fields))
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&keys, "keys", 50, "Number of index keys to print")
	fs.IntVar(&journeys, "journeys", 5, "Number of journeys to probe")
	return cmd
}

func printJourney(out io.Writer, idx *service.Index, j model.JourneyRecord) {
	fmt.Fprintf(out, "\njornada %s\n", j.ID)
	if !j.HasRefs {
		fmt.Fprintln(out, "  no imagens field")
		return
	}
	for _, role := range model.Roles {
		refs := j.Refs[role]
		if len(refs) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s:\n", role)
		for _, ref := range refs {
			p := idx.Probe(ref)
			var b strings.Builder
			fmt.Fprintf(&b, "    %s\n      path=%q filename=%q norm=%q", p.Reference, p.StoragePath, p.Filename, p.Normalized)
			if p.ParseError != "" {
				fmt.Fprintf(&b, " parse_error=%q", p.ParseError)
			}
			if p.Match != nil {
				fmt.Fprintf(&b, "\n      => doc:%s conf:%.2f reason:%s key:%s", p.Match.ImageID, p.Match.Confidence, p.Match.Reason, p.Match.Key)
			} else {
				b.WriteString("\n      => no match")
			}
			fmt.Fprintln(out, b.String())
		}
	}
}
