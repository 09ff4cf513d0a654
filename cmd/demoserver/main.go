// Command demoserver serves a fake GitHub contents API for one repository
// whose documents can be switched between versions at runtime.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
//
// Point a site at it with:
//
//	HYPERDOCS_SOURCE_API_BASE_URL=http://localhost:9999 hyperdocs serve
//
// and create the site with repo_url https://github.com/acme/handbook.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/hyperdocs/hyperdocs/internal/demoserver"
	"github.com/hyperdocs/hyperdocs/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	cfg.Token = os.Getenv("DEMO_TOKEN")

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
