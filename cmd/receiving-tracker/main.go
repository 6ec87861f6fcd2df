package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OhmBoyz/receiving-shipping-tracker/config"
	"github.com/OhmBoyz/receiving-shipping-tracker/messaging"
	"github.com/OhmBoyz/receiving-shipping-tracker/receiving"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
	"github.com/OhmBoyz/receiving-shipping-tracker/www"
)

func main() {
	configPath := flag.String("config", "receiving.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := ensureAdminUser(db); err != nil {
		log.Fatalf("bootstrap admin user: %v", err)
	}

	// Uplink is optional: when disabled, scans are local-only and no
	// outbox rows are produced.
	uplinkTopic := ""
	if cfg.Messaging.Enabled {
		uplinkTopic = cfg.Messaging.ScanTopic
		if cfg.Messaging.MQTT.ClientID == "" {
			cfg.Messaging.MQTT.ClientID = cfg.ClientID()
		}
		msgClient := messaging.NewClient(&cfg.Messaging)
		defer msgClient.Close()
		if err := msgClient.Connect(); err != nil {
			log.Printf("messaging connect: %v (will retry via outbox)", err)
		}
		drainer := messaging.NewOutboxDrainer(db, msgClient, &cfg.Messaging)
		drainer.Start()
		defer drainer.Stop()
	}

	resolver := receiving.NewResolver(db, cfg.Imports.PartIdentifierCSV)
	processor := receiving.NewProcessor(db, resolver, uplinkTopic)

	router := www.NewRouter(db, cfg, processor)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("receiving tracker listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

// ensureAdminUser seeds a default admin on first boot so the station
// is reachable before anyone has created accounts.
func ensureAdminUser(db *store.DB) error {
	exists, err := db.UserExists()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := www.HashPassword("admin")
	if err != nil {
		return err
	}
	if _, err := db.CreateUser("admin", hash, store.RoleAdmin); err != nil {
		return err
	}
	log.Println("created default admin user (username: admin, password: admin); change the password")
	return nil
}
