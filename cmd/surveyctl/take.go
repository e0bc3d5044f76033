package main

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/mbolis/surveyforge/respondent"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// parseAnswer reads a typed line as an answer for c. An empty line keeps
// the current answer and yields nil.
func parseAnswer(c renderer.Control, line string) any {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if c.Multiple {
		var values []any
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, optionValue(c, part))
			}
		}
		return values
	}
	if len(c.Options) > 0 {
		return optionValue(c, line)
	}
	if c.Kind == renderer.KindScale || c.Kind == renderer.KindSlider || c.InputType == "number" {
		if f, err := cast.ToFloat64E(line); err == nil {
			return f
		}
	}
	return line
}

// optionValue accepts an option by 1-based position, label or value.
func optionValue(c renderer.Control, s string) any {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(c.Options) {
		return c.Options[n-1].Value
	}
	for _, o := range c.Options {
		if strings.EqualFold(o.Label, s) || o.Value == s {
			return o.Value
		}
	}
	return s
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(c renderer.Control) (string, error) {
	mark := ""
	if c.Required {
		mark = " *"
	}
	fmt.Fprintf(p.out, "%s%s\n", c.Label, mark)
	if c.Description != "" {
		fmt.Fprintf(p.out, "  %s\n", c.Description)
	}
	for i, o := range c.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, o.Label)
	}
	if c.Value != nil {
		fmt.Fprintf(p.out, "  [%v]\n", c.Value)
	}
	fmt.Fprint(p.out, "> ")

	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return p.in.Text(), nil
}

// answerPage prompts for every visible question of the current page.
func answerPage(s *respondent.Session, p *prompter) error {
	view, err := s.CurrentPage()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "\n== %s (%d/%d, %.0f%%)\n", view.Name, view.Index+1, view.Total, view.Progress)

	for _, c := range view.Controls {
		line, err := p.ask(c)
		if err != nil {
			return err
		}
		if v := parseAnswer(c, line); v != nil {
			if err := s.SetAnswer(c.QuestionID, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func newTakeCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "take ID",
		Short: "Answer a published survey interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := g.client(ctx, false)
			if err != nil {
				return err
			}
			b, err := c.GetPublicSurvey(ctx, args[0])
			if err != nil {
				return err
			}
			survey, warnings := transform.ToFrontend(b)
			for _, w := range warnings {
				log.Warnf("surveyctl.take: %s", w)
			}

			store, closeStore, err := g.store()
			if err != nil {
				return err
			}
			defer closeStore()

			s, err := respondent.NewSession(survey, c,
				respondent.WithStore(store, respondent.DefaultAutosaveDelay),
				respondent.WithDeviceInfo("surveyctl/"+version+" "+runtime.GOOS),
			)
			if err != nil {
				return err
			}
			defer s.Close()
			if restored, err := s.Restore(ctx); err != nil {
				log.Warnf("surveyctl.take.restore: %s", err)
			} else if restored {
				fmt.Fprintln(cmd.OutOrStdout(), "Resuming earlier answers.")
			}

			out := cmd.OutOrStdout()
			p := &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: out}
			fmt.Fprintln(out, survey.Title)

			for s.State().Phase != respondent.Completed {
				if err := answerPage(s, p); err != nil {
					return err
				}

				_, err := s.Next(ctx)
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					view, err := s.CurrentPage()
					if err != nil {
						return err
					}
					if err := reportInvalid(out, view, verr); err != nil {
						return err
					}
					continue
				}
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "\nThank you! Response %s recorded.\n", s.ResponseID())
			return nil
		},
	}
}

// reportInvalid prints the failing questions. It gives up when one of them
// is not on the page, since it can never be answered here.
func reportInvalid(out io.Writer, view respondent.PageView, verr *model.ValidationError) error {
	titles := map[string]string{}
	for _, c := range view.Controls {
		titles[c.QuestionID] = c.Label
	}

	ids := make([]string, 0, len(verr.Errors))
	for id := range verr.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	hidden := false
	for _, id := range ids {
		title, shown := titles[id]
		if !shown {
			title = id
			hidden = true
		}
		fmt.Fprintf(out, "! %s: %s\n", title, verr.Errors[id])
	}
	if hidden {
		return verr
	}
	return nil
}
