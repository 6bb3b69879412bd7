// Command rleserver starts the TCP compression server: a thin wrapper
// around internal/server that reads the listen address from flags.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sparverius/rleserver/internal/log"
	"github.com/sparverius/rleserver/internal/netutil"
	"github.com/sparverius/rleserver/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "TCP listen address")
	reusePort := flag.Bool("reuseport", false, "bind with SO_REUSEPORT so multiple processes can share the port")
	dev := flag.Bool("dev", false, "use human-readable development logging")
	rate := flag.Float64("accept-rate", 0, "max accepted connections per second (0 disables the limiter)")
	flag.Parse()

	if *dev {
		if err := log.SetDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to configure logger: %s\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync() //nolint:errcheck

	srv := server.New(server.Options{
		ReusePort:           *reusePort,
		AcceptRatePerSecond: *rate,
		AcceptBurst:         int64(*rate),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutting down")
		srv.Close()
	}()

	log.Infof("listening on %s (host ip %s)", *addr, netutil.GetLocalIP())
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Errorf("server exited: %s", err)
		os.Exit(1)
	}
}
