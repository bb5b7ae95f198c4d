package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/adminapi"
	"github.com/talkincode/toughstore/internal/app"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/events"
	"github.com/talkincode/toughstore/internal/storefront"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	conffile = flag.String("c", "/etc/toughstore.yml", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showver  = flag.Bool("v", false, "print version and exit")
)

var buildVersion = "dev"

func main() {
	flag.Parse()

	if *showver {
		fmt.Println("toughstore", buildVersion)
		return
	}

	if *conffile != "" && !common.FileExists(*conffile) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using defaults\n", *conffile)
	}

	cfg := config.LoadConfig(*conffile)
	cfg.InitDirs()

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	selections, err := storefront.OpenSelectionStore(path.Join(cfg.GetDataDir(), "selections.db"))
	if err != nil {
		zap.S().Fatalf("open selection store: %v", err)
	}
	defer selections.Close()

	// Wire the change notification sinks.
	if cfg.Store.WebhookURL != "" {
		hook := events.NewWebhookNotifier(cfg.Store.WebhookURL)
		err = application.Bus().SubscribeTopics(hook.Handle,
			catalog.TopicProduct, catalog.TopicVariant,
			catalog.TopicCategory, catalog.TopicStatus)
		if err != nil {
			zap.S().Errorf("subscribe webhook notifier: %v", err)
		}
	}
	if cfg.Smtp.Host != "" {
		mailer := events.NewStockMailer(cfg.Smtp)
		if err := application.Bus().Subscribe(catalog.TopicVariant, mailer.HandleVariantChange); err != nil {
			zap.S().Errorf("subscribe stock mailer: %v", err)
		}
	}

	webserver.Init(cfg, application.DB(), application.Catalog())
	adminapi.InitRouter()
	storefront.Init(cfg, selections)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		zap.S().Infof("web server listening on %s:%d", cfg.Web.Host, cfg.Web.Port)
		return webserver.Listen()
	})

	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigs:
			zap.S().Infof("received signal %s, shutting down", sig)
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return webserver.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("server exited: %v", err)
	}
}
