// talon-cli sends one command to a Talon server and prints the reply.
//
//	talon-cli -addr localhost:6379 GET mykey
//	talon-cli -config talon.toml -cluster INFO replication
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	talon "github.com/talonkv/talon-go"
)

func main() {
	var (
		addr    = flag.String("addr", "localhost:6379", "server address, host:port (comma-separated for cluster seeds)")
		cfgPath = flag.String("config", "", "TOML config file; overrides -addr and -cluster")
		cluster = flag.Bool("cluster", false, "connect in cluster mode")
		timeout = flag.Duration("timeout", 5*time.Second, "request timeout")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	talon.SetLogger(log)

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: talon-cli [flags] COMMAND [ARG...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := resolveConfig(*cfgPath, *addr, *cluster, *timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	client, clusterClient, err := talon.NewClientFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var res any
	if clusterClient != nil {
		defer clusterClient.Close()
		res, err = clusterClient.CustomCommand(ctx, args...)
	} else {
		defer client.Close()
		res, err = client.CustomCommand(ctx, args...)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("command failed")
	}
	printReply(res, "")
}

func resolveConfig(path, addr string, cluster bool, timeout time.Duration) (talon.ClientConfig, error) {
	if path != "" {
		return talon.LoadConfig(path)
	}
	cfg := talon.DefaultConfig()
	cfg.Addresses = strings.Split(addr, ",")
	cfg.ClusterMode = cluster
	cfg.RequestTimeout = timeout
	return cfg, cfg.Validate()
}

// printReply renders a normalized reply the way redis-cli does: scalars on
// one line, arrays and maps indented per level.
func printReply(v any, indent string) {
	switch val := v.(type) {
	case nil:
		fmt.Println(indent + "(nil)")
	case bool:
		fmt.Printf("%s%t\n", indent, val)
	case int64:
		fmt.Printf("%s(integer) %d\n", indent, val)
	case float64:
		fmt.Printf("%s(double) %g\n", indent, val)
	case string:
		fmt.Printf("%s%q\n", indent, val)
	case []byte:
		fmt.Printf("%s%q\n", indent, string(val))
	case []any:
		for i, item := range val {
			fmt.Printf("%s%d)", indent, i+1)
			printReply(item, " ")
		}
	case map[string]any:
		for k, item := range val {
			fmt.Printf("%s%q =>", indent, k)
			printReply(item, " ")
		}
	default:
		fmt.Printf("%s%v\n", indent, val)
	}
}
