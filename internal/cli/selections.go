package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/spf13/cobra"
)

func selectionsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "selections",
		Short: "List the published years and rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := core.Catalog()
			return render(cmd.OutOrStdout(), g.format, catalog, func(w io.Writer) error {
				t := newTable([]string{"Year", "Rounds"})
				for _, yr := range catalog {
					t.Row(strconv.Itoa(int(yr.Year)), roundList(yr.Rounds))
				}
				_, err := fmt.Fprintln(w, t.Render())
				return err
			})
		},
	}
}

// roundList formats consecutive rounds as "1-6".
func roundList(rounds []int) string {
	switch len(rounds) {
	case 0:
		return "-"
	case 1:
		return strconv.Itoa(rounds[0])
	default:
		return fmt.Sprintf("%d-%d", rounds[0], rounds[len(rounds)-1])
	}
}
