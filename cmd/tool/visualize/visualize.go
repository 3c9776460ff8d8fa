// visualize writes the client polling loop's state machine in Graphviz
// format, for documentation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Simp1er/voltron/pkg/client"
	"github.com/Simp1er/voltron/pkg/plugin"
	"github.com/Simp1er/voltron/pkg/transport/socket"
)

var (
	outputPath = flag.String("o", "./fsm_visual", "output path")
)

func main() {
	flag.Parse()

	dialer, err := socket.NewDialer(&socket.Config{}, slog.Default())
	if err != nil {
		panic(err)
	}
	c, err := client.New(&client.Config{
		Target: "tcp://127.0.0.1:22222",
	}, dialer, plugin.Builtin(), slog.Default())
	if err != nil {
		panic(err)
	}
	visualStr := c.Visualize()

	f, err := os.OpenFile(*outputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	_, err = f.WriteString(visualStr)
	if err != nil {
		panic(err)
	}

	fmt.Println("Visualization finished")
}
