// Command main is the entry point for the Chronicle backend server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronicle/internal/bootstrap"
	"chronicle/internal/config"
	"chronicle/internal/mail"
	"chronicle/internal/server"
)

func main() {
	seedPreset := flag.String("seed-preset", "", "Apply a YAML fixture preset at startup (development only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	runtime, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedPresetPath: *seedPreset,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, runtime.DB, runtime.Redis, mail.NewSMTPSender(cfg))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := runtime.Close(ctx); err != nil {
			log.Printf("Runtime shutdown error: %v", err)
		}
	}()

	log.Fatal(srv.Start())
}
