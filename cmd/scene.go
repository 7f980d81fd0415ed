package cmd

import (
	"bytes"
	"fmt"

	"github.com/SimpsonGSD/path-tracer/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the built-in scenes that can be passed to the render commands.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Primitives", "Materials"})
	for _, name := range scene.BuiltinNames() {
		sc, err := scene.Builtin(name)
		if err != nil {
			return err
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%d", len(sc.Primitives)),
			fmt.Sprintf("%d", len(sc.Materials)),
		})
	}
	table.Render()
	logger.Noticef("built-in scenes\n%s", buf.String())

	return nil
}
