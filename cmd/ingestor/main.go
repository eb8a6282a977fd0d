package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"infrascore/config"
)

// DemandPayload is one citizen demand report as published by the intake
// gateway.
type DemandPayload struct {
	TS          string `json:"ts"`
	ReportID    string `json:"report_id"`
	Region      string `json:"region"`
	ServiceType string `json:"service_type"`
}

var (
	reportsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_ingestor_reports_received_total",
		Help: "Total number of MQTT demand reports received.",
	})
	reportsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_ingestor_reports_stored_total",
		Help: "Total number of demand reports inserted into Postgres.",
	})
	reportsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_ingestor_reports_failed_total",
		Help: "Total number of demand reports rejected or failed to store.",
	})
)

var redisClient *redis.Client

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("db pool init failed: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, skipping live echo: %v", err)
		redisClient = nil
	} else {
		log.Printf("redis connected: %s", redisAddr)
	}

	go serveHTTP(cfg.Pipeline.MetricsAddr)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.URL)
	opts.SetClientID("ingestor-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		processReport(ctx, dbPool, message.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.Topic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt subscribe error: %v", token.Error())
			return
		}
		log.Printf("ingestor subscribed to topic=%s", cfg.MQTT.Topic)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("mqtt connection failed: %v", token.Error())
	}

	log.Printf("ingestor running, mqtt=%s db=ok metrics=%s", cfg.MQTT.URL, cfg.Pipeline.MetricsAddr)

	<-ctx.Done()
	log.Printf("ingestor shutting down")
	client.Disconnect(250)
	if redisClient != nil {
		redisClient.Close()
	}
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}

func processReport(ctx context.Context, dbPool *pgxpool.Pool, payloadRaw []byte) {
	reportsReceived.Inc()

	var payload DemandPayload
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		reportsFailed.Inc()
		log.Printf("invalid payload: %v", err)
		return
	}

	if payload.ReportID == "" || payload.Region == "" || payload.ServiceType == "" {
		reportsFailed.Inc()
		log.Printf("missing required fields in payload")
		return
	}

	ts := time.Now().UTC()
	if payload.TS != "" {
		parsed, err := time.Parse(time.RFC3339, payload.TS)
		if err == nil {
			ts = parsed.UTC()
		}
	}

	_, err := dbPool.Exec(ctx, `
		INSERT INTO demand_signals (report_id, region, service_type, reported_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (report_id) DO NOTHING
	`, payload.ReportID, payload.Region, payload.ServiceType, ts)
	if err != nil {
		reportsFailed.Inc()
		log.Printf("db insert failed: %v", err)
		return
	}

	reportsStored.Inc()

	if redisClient != nil {
		_ = redisClient.Publish(ctx, "infrascore:demand:live", payloadRaw).Err()
	}
}
