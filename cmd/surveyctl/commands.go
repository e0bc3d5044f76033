package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/builder"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// importFile loads an exported document into a new editor.
func importFile(path string, opts ...builder.EditorOption) (*builder.Editor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e := builder.NewEditor(nil, opts...)
	if err := e.Import(f); err != nil {
		e.Close()
		return nil, errors.Wrapf(err, "import %s", path)
	}
	return e, nil
}

func newValidateCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check an exported survey document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := importFile(args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			doc := e.Document()
			if err := builder.Validate(doc); err != nil {
				return err
			}
			questions := 0
			for _, p := range doc.Pages {
				questions += len(p.Questions)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pages, %d questions)\n", args[0], len(doc.Pages), questions)
			return nil
		},
	}
}

func newPreviewCommand(g *globals) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the controls a respondent would see on a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := importFile(args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			doc := e.Document()
			if page < 1 || page > len(doc.Pages) {
				return errors.Errorf("page %d out of range 1..%d", page, len(doc.Pages))
			}
			if err := e.SetCurrentPage(doc.Pages[page-1].ID); err != nil {
				return err
			}
			controls, err := e.Preview(renderer.DefaultRegistry())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (page %d/%d)\n", e.CurrentPage().Name, page, len(doc.Pages))
			for _, c := range controls {
				required := ""
				if c.Required {
					required = " *"
				}
				fmt.Fprintf(out, "- [%s] %s%s\n", c.Kind, c.Label, required)
				for _, o := range c.Options {
					fmt.Fprintf(out, "    ( ) %s\n", o.Label)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	return cmd
}

func newListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the surveys on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			surveys, err := c.ListSurveys(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tRESPONSES")
			for _, s := range surveys {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.Title, s.Status, s.ResponseCount)
			}
			return w.Flush()
		},
	}
}

func newPullCommand(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pull ID",
		Short: "Download a survey as a document file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd.Context(), true)
			if err != nil {
				return err
			}

			e := builder.NewEditor(nil)
			defer e.Close()
			if err := e.Open(cmd.Context(), c, args[0]); err != nil {
				return err
			}

			if output == "" {
				output = e.ExportFilename()
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := e.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "survey %s written to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <title>.json)")
	return cmd
}

func newPushCommand(g *globals) *cobra.Command {
	var id string
	var publish bool
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Upload a document as a new survey, or over an existing one with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := g.store()
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := importFile(args[0], builder.WithStore(store, builder.DefaultAutosaveDelay))
			if err != nil {
				return err
			}
			defer e.Close()

			c, err := g.client(ctx, true)
			if err != nil {
				return err
			}

			if id == "" {
				if err := e.Publish(ctx, c); err != nil {
					return err
				}
				id = e.RemoteID()
			} else {
				doc := e.Document()
				if err := builder.Validate(doc); err != nil {
					return err
				}
				remote, err := c.GetSurvey(ctx, id)
				if err != nil {
					return err
				}
				b, _ := transform.ToBackend(doc)
				b.Version = remote.Version
				if err := c.UpdateSurvey(ctx, id, b); err != nil {
					return err
				}
			}

			if publish {
				if err := c.PublishSurvey(ctx, id); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "survey %s saved\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "replace the survey with this id")
	cmd.Flags().BoolVar(&publish, "publish", false, "open the survey to respondents")
	return cmd
}

func newAnalyticsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics ID",
		Short: "Print response statistics of a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			a, err := c.Analytics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := gojson.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
