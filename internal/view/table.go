package view

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable renders a dashboard as aligned plain text for terminals.
func WriteTable(w io.Writer, d Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Pool\t%s\tSum EV\t%s\tParticipants\t%d\t\n", d.Summary.TotalPool, d.Summary.SumEV, d.Summary.Participants)
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "#\tName\tSquares\tTotal EV\tEV/Square\tBest\tEdge\tShare\t")
	for _, r := range d.Leaderboard {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Rank, r.Name, r.Squares, r.TotalEV, r.EVPerSquare, r.BestSquareEV, r.Edge, r.ShareOfPool)
	}

	if len(d.TopCells) > 0 {
		fmt.Fprintln(tw, "\t")
		fmt.Fprintln(tw, "#\tName\tScore\tEV\tProbability\t")
		for _, c := range d.TopCells {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", c.Rank, c.Name, c.Score, c.EV, c.Probability)
		}
	}

	return tw.Flush()
}
