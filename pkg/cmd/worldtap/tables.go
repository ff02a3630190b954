package worldtap

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"go.minekube.com/worldtap/pkg/handler"
)

func tablesCommand() *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "List the intercepted packets per version and check them against the packet id table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "protocol-file",
				Usage: "Packet id table to check instead of the built-in one",
			},
		},
		Action: func(c *cli.Context) error {
			names, err := loadNames(afero.NewOsFs(), c.String("protocol-file"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			tables, err := handler.Default()
			if err != nil {
				return cli.Exit(err, 1)
			}

			w := c.App.Writer
			for _, t := range tables.All() {
				_, _ = fmt.Fprintf(w, "%s %s\n", color.Cyan.Sprint(t.Version()),
					color.Gray.Sprintf("(protocol %d, %d operators)", t.Version().Protocol, t.Len()))
				for _, e := range t.Entries() {
					id, ok := names.ID(t.Version().Protocol, e.State, e.Direction, e.Name)
					idStr := color.Red.Sprint("missing")
					if ok {
						idStr = id.String()
					}
					_, _ = fmt.Fprintf(w, "  %-13s %-11s %-22s %s\n", e.State, e.Direction, e.Name, idStr)
				}
			}

			if err = tables.Validate(names); err != nil {
				return cli.Exit(fmt.Errorf("%s\n%w", color.Red.Sprint("packet id table is incomplete:"), err), 1)
			}
			_, _ = fmt.Fprintln(w, color.Green.Sprint("every intercepted packet has an id"))
			return nil
		},
	}
}
