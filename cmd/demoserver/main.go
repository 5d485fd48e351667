// Command demoserver starts a local site for trying sitebots against.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/sitebots/internal/demoserver"
	"github.com/raysh454/sitebots/internal/logging"
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

	fmt.Println("===========================================")
	fmt.Println("   sitebots demo site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Pages can be switched between versions:")
	fmt.Println("  1 = optimized, 2 = bare, 3 = regressed")
	fmt.Println()
	fmt.Printf("  curl -X POST 'http://localhost:%d/demo/set-version?path=/&version=3'\n", cfg.Port)
	fmt.Printf("  curl -X POST 'http://localhost:%d/demo/robots?enabled=false'\n", cfg.Port)
	fmt.Printf("  sitebots analyze http://localhost:%d/\n", cfg.Port)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
