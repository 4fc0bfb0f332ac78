// Command ignite-cli is a thin client for the IgniteKV wire protocol: it
// parses host, port, one of put|batchput|read|readrange|delete, and the
// operands for that command, then prints the server's reply. No protocol
// logic lives here — internal/client owns the framing.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ignitekv/ignite/internal/client"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		host    = flag.String("host", "127.0.0.1", "server host")
		port    = flag.Int("port", 6380, "server port")
		timeout = flag.Duration("timeout", 5*time.Second, "dial/round-trip timeout")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ignite-cli [flags] <put|batchput|read|readrange|delete> <operands...>")
		return 1
	}

	c := client.New(*host, *port, *timeout)

	var reply string
	var err error

	switch strings.ToLower(args[0]) {
	case "put":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: put <key> <value>")
			return 1
		}
		reply, err = c.Put(args[1], args[2])

	case "batchput":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: batchput <k1,k2,...> <v1,v2,...>")
			return 1
		}
		keys := strings.Split(args[1], ",")
		values := strings.Split(args[2], ",")
		if len(keys) != len(values) {
			fmt.Fprintln(os.Stderr, "batchput: key/value count mismatch")
			return 1
		}
		reply, err = c.BatchPut(keys, values)

	case "read":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: read <key>")
			return 1
		}
		reply, err = c.Read(args[1])

	case "readrange":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: readrange <start_key> <end_key>")
			return 1
		}
		reply, err = c.ReadRange(args[1], args[2])

	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: delete <key>")
			return 1
		}
		reply, err = c.Delete(args[1])

	default:
		fmt.Fprintln(os.Stderr, "unknown subcommand:", args[0])
		return 1
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "ignite-cli:", err)
		return 1
	}

	fmt.Println(reply)
	if strings.HasPrefix(reply, "ERROR") {
		return 1
	}
	return 0
}
