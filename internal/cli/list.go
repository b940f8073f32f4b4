package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/spf13/cobra"
)

// listOptions are the filter and sort flags of the list command.
type listOptions struct {
	year, round int

	excludeQuota     []string
	excludeSeatType  []string
	excludeGender    []string
	excludeBranch    []string
	excludeKind      []string
	excludeInstitute []string

	opening string
	closing string
	sort    string
	limit   int
}

// apply turns the flags into filter edits. Windows are parsed against the
// observed bounds, so an omitted side keeps its bound.
func (o *listOptions) apply(f *core.Filters) error {
	excluded := []struct {
		name   core.FacetName
		values []string
	}{
		{core.FacetQuota, o.excludeQuota},
		{core.FacetSeatType, o.excludeSeatType},
		{core.FacetGender, o.excludeGender},
		{core.FacetBranch, o.excludeBranch},
	}
	for _, ex := range excluded {
		for _, v := range ex.values {
			if err := f.SetFacet(ex.name, v, false); err != nil {
				return err
			}
		}
	}
	for _, kind := range o.excludeKind {
		if err := f.SetKindEnabled(kind, false); err != nil {
			return err
		}
	}
	for _, inst := range o.excludeInstitute {
		if err := f.SetInstituteEnabled(inst, false); err != nil {
			return err
		}
	}

	if o.opening != "" {
		r, err := core.ParseRankRange(o.opening, f.OpeningBounds())
		if err != nil {
			return err
		}
		f.SetOpening(r.Clamp(f.OpeningBounds()))
	}
	if o.closing != "" {
		r, err := core.ParseRankRange(o.closing, f.ClosingBounds())
		if err != nil {
			return err
		}
		f.SetClosing(r.Clamp(f.ClosingBounds()))
	}
	return nil
}

type listOutput struct {
	Selection core.Selection `json:"selection" yaml:"selection"`
	Sort      core.Sort      `json:"sort" yaml:"sort"`
	Total     int            `json:"total" yaml:"total"`
	Visible   int            `json:"visible" yaml:"visible"`
	Rows      []core.Entry   `json:"rows" yaml:"rows"`
}

func listCmd(g *globals, deps Deps) *cobra.Command {
	var o listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the filtered entries of one dataset in sort order",
		Example: `  rankview list -y 2024 -r 5 --exclude-quota OS --exclude-quota HS
  rankview list -y 2023 -r 6 --exclude-kind IIIT --closing :5000 --sort closing-asc
  rankview list -y 2019 -r 7 --exclude-gender Female-only -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sort := core.DefaultSort
			if o.sort != "" {
				s, err := core.ParseSort(o.sort)
				if err != nil {
					return err
				}
				sort = s
			}

			svc, st, err := g.open(cmd.Context(), deps, selectionOf(o.year, o.round))
			if err != nil {
				return err
			}
			defer svc.Close()

			if _, err := svc.Edit(st.LoadID, o.apply); err != nil {
				return err
			}
			if _, err := svc.SetSort(sort); err != nil {
				return err
			}
			st, rows, err := svc.Snapshot(o.limit)
			if err != nil {
				return err
			}

			out := listOutput{
				Selection: st.Selection,
				Sort:      st.Sort,
				Total:     st.Entries,
				Visible:   st.Visible,
				Rows:      rows,
			}
			if out.Rows == nil {
				out.Rows = []core.Entry{}
			}
			return render(cmd.OutOrStdout(), g.format, out, func(w io.Writer) error {
				return printEntries(w, out)
			})
		},
	}

	selectionFlags(cmd, &o.year, &o.round)
	cmd.Flags().StringArrayVar(&o.excludeQuota, "exclude-quota", nil, "quota to hide (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeSeatType, "exclude-seat-type", nil, "seat type to hide (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeGender, "exclude-gender", nil, "gender pool to hide (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeBranch, "exclude-branch", nil, "branch to hide (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeKind, "exclude-kind", nil, "institute kind to hide, e.g. IIT (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeInstitute, "exclude-institute", nil, "institute to hide (repeatable)")
	cmd.Flags().StringVar(&o.opening, "opening", "", "opening rank window start:end; either side may be omitted")
	cmd.Flags().StringVar(&o.closing, "closing", "", "closing rank window start:end; either side may be omitted")
	cmd.Flags().StringVar(&o.sort, "sort", "", "opening-asc|opening-desc|closing-asc|closing-desc")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "print at most n rows (0 prints all)")
	return cmd
}

func printEntries(w io.Writer, out listOutput) error {
	t := newTable([]string{"#", "Institute", "Branch", "Quota", "Seat type", "Gender", "Opening", "Closing"}, 0, 6, 7)
	for i := range out.Rows {
		e := &out.Rows[i]
		t.Row(
			strconv.Itoa(i+1),
			e.Institute(),
			e.Branch(),
			e.Quota(),
			e.SeatType(),
			e.Gender(),
			strconv.FormatUint(uint64(e.OpeningRank()), 10),
			strconv.FormatUint(uint64(e.ClosingRank()), 10),
		)
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf(
		"%s: %d of %d entries, sorted %s", out.Selection, out.Visible, out.Total, out.Sort)))
	return err
}
