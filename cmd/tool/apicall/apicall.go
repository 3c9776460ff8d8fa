// apicall sends one API request to a running debugger-control server and
// prints the raw response, e.g.:
//
//	apicall -target tcp://127.0.0.1:22222 -request version
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Simp1er/voltron/pkg/log"
	"github.com/Simp1er/voltron/pkg/model"
	"github.com/Simp1er/voltron/pkg/transport/socket"
)

var (
	target  = flag.String("target", "tcp://127.0.0.1:22222", "server target")
	request = flag.String("request", "version", "request-type name")
	data    = flag.String("data", "", "request data as a JSON object")
	block   = flag.Bool("block", false, "wait for the debugger to stop")
	timeout = flag.Uint("timeout", 0, "blocking deadline in seconds, 0 for the server default")
	level   = flag.String("log", "warn", "log level")
)

func main() {
	flag.Parse()

	logger, err := log.New(*level, os.Stderr)
	if err != nil {
		fail(err)
	}

	env := model.NewRequest(*request, nil)
	env.Block = *block
	env.Timeout = *timeout
	if *data != "" {
		if err := json.Unmarshal([]byte(*data), &env.Data); err != nil {
			fail(fmt.Errorf("parse -data: %w", err))
		}
	}
	payload, err := model.EncodeEnvelope(env)
	if err != nil {
		fail(err)
	}

	dialer, err := socket.NewDialer(&socket.Config{}, logger)
	if err != nil {
		fail(err)
	}
	defer dialer.Close()

	response, err := dialer.Send(*target, payload)
	if err != nil {
		fail(err)
	}
	fmt.Println(string(response))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "apicall:", err.Error())
	os.Exit(1)
}
