package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/rdk/fake"
	"github.com/spf13/cobra"
)

// FakeMain is wrapped by NewFakeCommand and only exported for testing purposes.
var FakeMain *fake.Main

// NewFakeCommand returns a new cobra command wrapping FakeMain.
func NewFakeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	FakeMain = fake.NewMain()
	FakeMain.SetOutput(stdout)
	fakeCommand := &cobra.Command{
		Use:   "fake",
		Short: "generate a sample financial sales file",
		Long: `Generate a deterministic sample of the financial sales table and write
it as csv or json, for demos and for exercising the other commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return FakeMain.Run()
		},
	}
	flags := fakeCommand.Flags()
	err := commandeer.Flags(flags, FakeMain)
	if err != nil {
		panic(err)
	}
	return fakeCommand
}

func init() {
	subcommandFns["fake"] = NewFakeCommand
}
