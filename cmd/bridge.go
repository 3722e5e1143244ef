// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/bridge"
	"github.com/marron9999/sc3-mbitmart/pkg/transport"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	bridgeNATSURL   string
	bridgeRedisAddr string
	bridgePrefix    string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Republish sensor readings on NATS and mirror state into Redis",
	Long: `Connect a micro:bit to a NATS server.

Every decoded reading is published as JSON on <prefix>.<field> (for example
microbit.button_a or microbit.acceleration) and rejected lines on
<prefix>.rejected. Command requests sent to <prefix>.cmd, such as

  {"command": "CT", "payload": "Hi"}

are issued to the micro:bit and answered once the command has been sent.

When a Redis address is given, the full sensor state is written to a hash
(--config bridge.redis_key, default microbit:state) after every reading.

Examples:
  mbitlink bridge --port /dev/ttyACM0 --nats nats://localhost:4222
  mbitlink bridge --ble AA:BB:CC:DD:EE:FF --redis localhost:6379`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeNATSURL, "nats", "", "NATS server URL (default "+nats.DefaultURL+")")
	bridgeCmd.Flags().StringVar(&bridgeRedisAddr, "redis", "", "Redis address for the state hash (optional)")
	bridgeCmd.Flags().StringVar(&bridgePrefix, "prefix", "", "Subject prefix (default from config)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg := appConfig.Bridge
	if cmd.Flags().Changed("nats") {
		cfg.NATSURL = bridgeNATSURL
	}
	if cmd.Flags().Changed("redis") {
		cfg.RedisAddr = bridgeRedisAddr
	}
	if cmd.Flags().Changed("prefix") {
		cfg.SubjectPrefix = bridgePrefix
	}
	if cfg.NATSURL == "" {
		cfg.NATSURL = nats.DefaultURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Redis
	var cache bridge.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
		cache = redisClient
	}

	// Connect to NATS
	natsConn, err := nats.Connect(cfg.NATSURL, nats.Name("mbitlink"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConn.Close()
	log.Info().Str("url", cfg.NATSURL).Msg("connected to NATS")

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	adapter := newAdapter(conn)
	defer adapter.Close()

	fmt.Printf("mbitlink - Bridge\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("NATS: %s (subjects %s.*)\n", cfg.NATSURL, cfg.SubjectPrefix)
	if cfg.RedisAddr != "" {
		fmt.Printf("Redis: %s (hash %s)\n", cfg.RedisAddr, cfg.RedisKey)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	b := bridge.New(adapter, natsConn, cache, cfg.SubjectPrefix, cfg.RedisKey)
	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- b.Run(ctx) }()

	// Sensor reporting is off until asked for
	go func() {
		if err := adapter.SetSensors(ctx, true); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("failed to enable sensors")
		}
	}()

	runErr := adapter.Run(ctx, conn)
	stop()
	if err := <-bridgeErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println()
	fmt.Print(adapter.Statistics().String())

	if runErr == nil || errors.Is(runErr, context.Canceled) || errors.Is(runErr, transport.ErrConnectionClosed) {
		return nil
	}
	return runErr
}
