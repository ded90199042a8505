package main

import (
	"context"
	"crypto/rand"
	"flag"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/common/logging"

	"github.com/weaveworks/pubbot/botapi"
	"github.com/weaveworks/pubbot/common"
	"github.com/weaveworks/pubbot/dispatcher"
	"github.com/weaveworks/pubbot/handlers"
	"github.com/weaveworks/pubbot/session"
	"github.com/weaveworks/pubbot/store"
)

func main() {
	var (
		configFile    string
		logLevel      logging.Level
		apiConfig     botapi.Config
		storeConfig   store.Config
		sessionConfig session.Config
	)
	flag.StringVar(&configFile, "config.file", "", "YAML file of flag values; flags given on the command line take precedence")
	logLevel.RegisterFlags(flag.CommandLine)
	apiConfig.RegisterFlags(flag.CommandLine)
	storeConfig.RegisterFlags(flag.CommandLine)
	sessionConfig.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if configFile != "" {
		if err := applyConfigFile(flag.CommandLine, configFile); err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
	}
	if err := logging.Setup(logLevel.String()); err != nil {
		log.Fatalf("error initialising logging: %v", err)
	}
	prometheus.MustRegister(common.RequestDuration, common.DatabaseRequestDuration)

	if err := apiConfig.Validate(); err != nil {
		log.Fatalf("Invalid Bot API configuration: %v", err)
	}
	if err := sessionConfig.Validate(); err != nil {
		log.Fatalf("Invalid webhook configuration: %v", err)
	}

	st, err := store.New(storeConfig)
	if err != nil {
		log.Fatalf("Error initializing store: %v", err)
	}
	defer st.Close()

	api, err := botapi.NewClient(apiConfig)
	if err != nil {
		log.Fatalf("Error creating Bot API client: %v", err)
	}

	registry := dispatcher.NewRegistry()
	handlers.Register(registry)
	d, err := registry.Build(dispatcher.Deps{API: api, Store: st})
	if err != nil {
		log.Fatalf("Error building handlers: %v", err)
	}

	s, err := session.New(sessionConfig, api, d, rand.Reader)
	if err != nil {
		log.Fatalf("Error creating webhook session: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		log.Fatalf("Webhook session failed: %v", err)
	}
	log.Info("Stopped")
}
