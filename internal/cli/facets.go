package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/spf13/cobra"
)

type facetSummary struct {
	Name   core.FacetName `json:"name" yaml:"name"`
	Values []string       `json:"values" yaml:"values"`
}

type kindSummary struct {
	Kind       string   `json:"kind" yaml:"kind"`
	Institutes []string `json:"institutes" yaml:"institutes"`
}

type facetsOutput struct {
	Selection     core.Selection `json:"selection" yaml:"selection"`
	Entries       int            `json:"entries" yaml:"entries"`
	Facets        []facetSummary `json:"facets" yaml:"facets"`
	Kinds         []kindSummary  `json:"kinds" yaml:"kinds"`
	OpeningBounds core.RankRange `json:"openingBounds" yaml:"openingBounds"`
	ClosingBounds core.RankRange `json:"closingBounds" yaml:"closingBounds"`
}

func facetsCmd(g *globals, deps Deps) *cobra.Command {
	var year, round int

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Show the filterable values of one dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, st, err := g.open(cmd.Context(), deps, selectionOf(year, round))
			if err != nil {
				return err
			}
			defer svc.Close()

			var out facetsOutput
			if err := svc.Do(func(d *core.Dataset) error {
				out = summarizeFacets(d, st)
				return nil
			}); err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), g.format, out, func(w io.Writer) error {
				return printFacets(w, out)
			})
		},
	}

	selectionFlags(cmd, &year, &round)
	return cmd
}

func summarizeFacets(d *core.Dataset, st core.Status) facetsOutput {
	f := d.Filters()
	out := facetsOutput{
		Selection:     st.Selection,
		Entries:       st.Entries,
		OpeningBounds: f.OpeningBounds(),
		ClosingBounds: f.ClosingBounds(),
	}
	for _, name := range core.FacetNames() {
		out.Facets = append(out.Facets, facetSummary{Name: name, Values: f.Facet(name).Values()})
	}
	for _, kind := range f.Kinds() {
		out.Kinds = append(out.Kinds, kindSummary{Kind: kind, Institutes: f.InstitutesOf(kind)})
	}
	return out
}

func printFacets(w io.Writer, out facetsOutput) error {
	if _, err := fmt.Fprintf(w, "Selection: %s (%d entries)\nOpening ranks: %s\nClosing ranks: %s\n\n",
		out.Selection, out.Entries, out.OpeningBounds, out.ClosingBounds); err != nil {
		return err
	}

	t := newTable([]string{"Facet", "Count", "Values"}, 1)
	for _, f := range out.Facets {
		t.Row(string(f.Name), fmt.Sprint(len(f.Values)), strings.Join(f.Values, ", "))
	}
	for _, k := range out.Kinds {
		t.Row("kind: "+k.Kind, fmt.Sprint(len(k.Institutes)), strings.Join(k.Institutes, ", "))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
