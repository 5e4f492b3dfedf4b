package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"csvload/internal/pipeline"
	"csvload/internal/schema"
)

// printSchema writes one line per column: name, type, nullability,
// confidence, samples and nulls.
func printSchema(w io.Writer, t schema.Table) {
	fmt.Fprintf(w, "\nInferred schema for table %s:\n", t.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  COLUMN\tTYPE\tNULL\tCONFIDENCE\tSAMPLES\tNULLS")
	for _, c := range t.Columns {
		null := "NOT NULL"
		if c.Nullable {
			null = "NULL"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d%%\t%s\t%s\n",
			c.Name,
			strings.ToUpper(c.Type.String()),
			null,
			int(c.Confidence()*100),
			formatCount(int64(c.SampleCount)),
			formatCount(int64(c.NullCount)),
		)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, table string, res pipeline.LoadResult) {
	fmt.Fprintf(w, "Loaded %s rows into %s in %s batches\n",
		formatCount(res.Rows), table, formatCount(int64(res.Batches)))
	fmt.Fprintf(w, "  Throughput: %s rows/sec\n", humanize.Comma(int64(res.RowsPerSecond())))
	fmt.Fprintf(w, "  Time: %s\n", res.Elapsed.Round(time.Millisecond))
}

func formatCount(n int64) string { return humanize.Comma(n) }
