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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/file"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/kafka"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/metrics"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/postgres"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/redis"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/ws"
	"github.com/YelzhanWeb/stall-orders/internal/app/hub"
	"github.com/YelzhanWeb/stall-orders/internal/app/registry"
	"github.com/YelzhanWeb/stall-orders/internal/app/terminal"
	"github.com/YelzhanWeb/stall-orders/internal/config"
	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/stall-orders/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/stall-orders/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "server", "Mode: server, display-terminal, store-terminal, reception, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config and PORT)")
	serverURL := flag.String("server", "", "Server websocket URL for terminal modes (default: local server on the configured port)")
	items := flag.String("items", "", `Items to order, e.g. "A=2,C=1" (reception mode)`)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid --port: %v", err)
		}
	}
	if *serverURL == "" {
		*serverURL = cfg.LocalServerURL()
	}

	// Завершение по сигналу для всех режимов
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "server":
		lgr := logger.NewWithWriter("stall-server", cfg.Log.Level, os.Stdout)
		runServer(ctx, cfg, lgr)

	case "display-terminal", "store-terminal":
		// boards go to stdout, logs to stderr
		lgr := logger.NewWithWriter(*mode, cfg.Log.Level, os.Stderr)
		runBoard(ctx, *mode, *serverURL, lgr)

	case "reception":
		if *items == "" {
			log.Fatal("--items is required for reception mode")
		}
		lgr := logger.NewWithWriter(*mode, cfg.Log.Level, os.Stderr)
		runReception(ctx, cfg, *serverURL, *items, lgr)

	case "notification-subscriber":
		lgr := logger.NewWithWriter(*mode, cfg.Log.Level, os.Stderr)
		runNotificationSubscriber(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func openStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.OrderStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, postgres.ConnString(cfg.Database))
		if err != nil {
			return nil, err
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
		return postgres.NewOrderStore(ctx, db)

	case config.StorageRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
			"addr": cfg.Redis.Addr,
			"key":  cfg.Redis.Key,
		})
		return redis.NewOrderStore(client, cfg.Redis.Key), nil

	default:
		return file.NewOrderStore(cfg.Storage.Path), nil
	}
}

func openSinks(cfg *config.Config, lgr logger.Logger) []interfaces.EventPublisher {
	var sinks []interfaces.EventPublisher

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		sinks = append(sinks, rabbitmq.NewPublisher(mqConn, cfg.RabbitMQ.Exchange))
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host":     cfg.RabbitMQ.Host,
			"exchange": cfg.RabbitMQ.Exchange,
		})
	}

	if cfg.Kafka.Enabled {
		brokers := kafka.ParseBrokers(cfg.Kafka.Brokers)
		sinks = append(sinks, kafka.NewPublisher(kafka.NewWriter(brokers, cfg.Kafka.Topic)))
		lgr.Info("kafka_configured", "Publishing events to Kafka", "startup", map[string]interface{}{
			"brokers": brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}

	return sinks
}

func runServer(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	store, err := openStore(ctx, cfg, lgr)
	if err != nil {
		log.Fatalf("Failed to open order store: %v", err)
	}
	defer store.Close()

	reg, err := registry.New(ctx, store, lgr,
		registry.WithTransitionPolicy(domain.TransitionPolicy(cfg.Registry.TransitionPolicy)))
	if err != nil {
		log.Fatalf("Failed to load orders: %v", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	sinks := openSinks(cfg, lgr)
	defer func() {
		for _, s := range sinks {
			s.Close()
		}
	}()

	hubService := hub.NewService(reg, m, lgr, sinks...)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hubService.Run(ctx)
	}()

	wsHandler := ws.NewHandler(hubService, lgr, cfg.Server.AllowAnyOrigin, cfg.Server.SendBuffer)
	router := httpAdapter.NewRouter(cfg.Server.PublicDir, wsHandler, m, lgr)

	// no WriteTimeout: websocket connections are long-lived
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Stall server started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":    cfg.Server.Port,
		"storage": cfg.Storage.Driver,
		"orders":  len(reg.Orders()),
		"policy":  cfg.Registry.TransitionPolicy,
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		lgr.Info("shutdown_initiated", "Shutting down stall server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
	<-hubDone
}

func runBoard(ctx context.Context, mode, serverURL string, lgr logger.Logger) {
	mirror := terminal.NewMirror()
	conn := terminal.NewConnector(serverURL, lgr)

	var render func() error
	if mode == "display-terminal" {
		board := terminal.NewDisplayBoard(mirror)
		render = func() error { return board.Render(os.Stdout) }
	} else {
		board := terminal.NewStoreBoard(mirror)
		render = func() error { return board.Render(os.Stdout) }
	}

	lgr.Info("service_started", "Terminal started", "startup", map[string]interface{}{
		"server": serverURL,
	})

	err := conn.Run(ctx, func(ev interfaces.Event) {
		if !mirror.Apply(ev) {
			return
		}
		if _, created := ev.(interfaces.OrderCreatedEvent); created && mode == "store-terminal" {
			fmt.Fprint(os.Stdout, "\a")
		}
		fmt.Fprintln(os.Stdout, "----", time.Now().Format("15:04:05"))
		if err := render(); err != nil {
			lgr.Error("render_failed", "Failed to render board", "", nil, err)
		}
	})
	if err != nil && ctx.Err() == nil {
		lgr.Error("terminal_error", "Terminal stopped", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down terminal", "shutdown", nil)
}

func runReception(ctx context.Context, cfg *config.Config, serverURL, items string, lgr logger.Logger) {
	catalog := make([]terminal.Product, 0, len(cfg.Catalog))
	for _, p := range cfg.Catalog {
		catalog = append(catalog, terminal.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}

	cart := terminal.NewReception(catalog)
	if err := cart.Fill(items); err != nil {
		log.Fatalf("Invalid --items: %v", err)
	}
	fmt.Println(cart.Summary())
	if len(cart.Lines()) == 0 {
		log.Fatal("Nothing to order: select at least one item")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn := terminal.NewConnector(serverURL, lgr)
	sent := false
	var created *domain.Order

	// the first orderCreated after our submit is taken as ours;
	// a failed send keeps the cart and is retried on the next init
	err := conn.Run(ctx, func(ev interfaces.Event) {
		switch e := ev.(type) {
		case interfaces.InitEvent:
			if sent {
				return
			}
			if _, err := cart.SubmitVia(conn.Send); err != nil {
				lgr.Error("submit_failed", "Failed to submit order, cart kept", "", nil, err)
				return
			}
			sent = true
		case interfaces.OrderCreatedEvent:
			if sent && created == nil {
				o := e.Order
				created = &o
				cancel()
			}
		}
	})

	if created == nil {
		log.Fatalf("Order was not confirmed: %v", err)
	}
	fmt.Printf("Order %s (ID: %d) received, total %d\n",
		terminal.FormatDisplayNumber(created.DisplayNumber), created.ID, created.Total())
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Exchange, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", map[string]interface{}{
		"exchange": cfg.RabbitMQ.Exchange,
	})

	if err := consumer.ConsumeEvents(ctx, notificationHandler.HandleNotification); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
