package app

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// ListPairs prints the configured ratio pairs and their modes.
func (a *App) ListPairs() error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tSymbol A\tSymbol B\tMode\tAnalysis Volume")

	for _, pair := range a.Config.Pairs {
		mode, volume := "simple", "-"
		if pair.VolumeMode() {
			mode = "volume"
			volume = fmt.Sprintf("%g", pair.AnalysisVolume)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", pair.Name, pair.SymbolA, pair.SymbolB, mode, volume)
	}

	if err := writer.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nTotal pairs: %d\n", len(a.Config.Pairs))
	return nil
}
