// Command ignited runs the IgniteKV server: it parses the tunables spec.md
// §6's CLI section lists, opens a store via pkg/ignite, and serves the
// wire protocol until interrupted. No protocol or storage logic lives
// here — this is purely host/port/data-dir/follower/replication argument
// parsing, per spec.md §1's external-collaborator boundary.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ignitekv/ignite/internal/server"
	"github.com/ignitekv/ignite/pkg/ignite"
	"github.com/ignitekv/ignite/pkg/options"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		host               = flag.String("host", "0.0.0.0", "address to bind")
		port               = flag.Int("port", 6380, "port to bind")
		dataDir            = flag.String("data-dir", options.DefaultDataDir, "data directory")
		followerMode       = flag.Bool("follower", false, "run as a replication follower, accepting REPLICATE commands")
		followers          = flag.String("followers", "", "comma-separated host:port list of replica followers")
		replicationMode    = flag.String("replication-mode", "async", "replication mode: async or sync")
		replicationEnabled = flag.Bool("replication", false, "enable primary-side replication")
		checkpointInterval = flag.Duration("checkpoint-interval", options.DefaultCheckpointInterval, "period between index snapshots")
		compactionEnabled  = flag.Bool("compaction", options.DefaultCompactionEnabled, "run the background compactor")
	)
	flag.Parse()

	addrs, err := parseFollowers(*followers)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ignited:", err)
		return 1
	}

	mode := options.ReplicationModeAsync
	if *replicationMode == "sync" {
		mode = options.ReplicationModeSync
	}

	inst, err := ignite.NewInstance(context.Background(), "ignited",
		options.WithDataDir(*dataDir),
		options.WithCheckpointInterval(*checkpointInterval),
		options.WithCompactionEnabled(*compactionEnabled),
		options.WithFollowerMode(*followerMode),
		options.WithReplicationEnabled(*replicationEnabled),
		options.WithReplicationMode(mode),
		options.WithReplicaAddresses(addrs...),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ignited: failed to open store:", err)
		return 1
	}

	srv := server.New(inst.Store(), *followerMode, inst.Logger())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(*host, *port) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintln(os.Stderr, "ignited: server error:", err)
		}
	case <-sig:
	}

	srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := inst.Close(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ignited: shutdown error:", err)
		return 1
	}
	return 0
}

func parseFollowers(s string) ([]options.ReplicaAddress, error) {
	if s == "" {
		return nil, nil
	}
	var out []options.ReplicaAddress
	for _, part := range strings.Split(s, ",") {
		host, portStr, err := net.SplitHostPort(part)
		if err != nil {
			return nil, fmt.Errorf("invalid follower address %q: %w", part, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid follower port %q: %w", part, err)
		}
		out = append(out, options.ReplicaAddress{Host: host, Port: port})
	}
	return out, nil
}
