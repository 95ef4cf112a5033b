package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/rdk/report"
	"github.com/spf13/cobra"
)

// ReportMain is wrapped by NewReportCommand and only exported for testing purposes.
var ReportMain *report.Main

// NewReportCommand returns a new cobra command wrapping ReportMain.
func NewReportCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	ReportMain = report.NewMain()
	ReportMain.SetOutput(stdout)
	reportCommand := &cobra.Command{
		Use:   "report",
		Short: "ingest a source and write one view as csv or json",
		Long: `Ingest the configured source, compute the named view, and write it to
the output file or stdout. With no view the raw dataset is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ReportMain.Run()
		},
	}
	flags := reportCommand.Flags()
	err := commandeer.Flags(flags, ReportMain)
	if err != nil {
		panic(err)
	}
	return reportCommand
}

func init() {
	subcommandFns["report"] = NewReportCommand
}
