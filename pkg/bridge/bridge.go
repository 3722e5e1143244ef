// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge republishes adapter events on NATS and mirrors the sensor
// state into a Redis hash.
//
// Readings go to <prefix>.<field> as JSON, rejected lines to
// <prefix>.rejected. Requests on <prefix>.cmd are issued through the adapter
// and answered with a CommandReply once the command has been sent.
package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/link"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Conn is the part of *nats.Conn the bridge uses.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Cache is the part of a go-redis client the bridge uses.
type Cache interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Bridge connects one adapter to NATS and, optionally, Redis.
type Bridge struct {
	adapter  *link.Adapter
	conn     Conn
	cache    Cache
	prefix   string
	redisKey string
	log      zerolog.Logger
}

// New creates a bridge. cache may be nil.
func New(adapter *link.Adapter, conn Conn, cache Cache, prefix, redisKey string) *Bridge {
	return &Bridge{
		adapter:  adapter,
		conn:     conn,
		cache:    cache,
		prefix:   prefix,
		redisKey: redisKey,
		log:      log.With().Str("component", "bridge").Logger(),
	}
}

// Run forwards events until ctx ends or the adapter closes.
func (b *Bridge) Run(ctx context.Context) error {
	sub, err := b.conn.Subscribe(Subject(b.prefix, SubjectCommand), func(m *nats.Msg) {
		reply := b.HandleCommand(ctx, m.Data)
		if m.Reply == "" {
			return
		}
		if err := m.Respond(reply); err != nil {
			b.log.Warn().Err(err).Msg("command reply failed")
		}
	})
	if err != nil {
		return err
	}
	if sub != nil {
		defer sub.Unsubscribe()
	}

	events := b.adapter.Subscribe(link.TopicAll, link.TopicRejected)
	defer b.adapter.Unsubscribe(events, link.TopicAll, link.TopicRejected)

	b.log.Info().Str("prefix", b.prefix).Msg("bridge running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent publishes one adapter event and refreshes the cache.
func (b *Bridge) HandleEvent(ctx context.Context, ev interface{}) {
	switch e := ev.(type) {
	case link.Event:
		msg := NewReadingMessage(e)
		b.publish(Subject(b.prefix, msg.Field), msg)
		b.storeSnapshot(ctx)
	case link.Rejection:
		msg := RejectedMessage{Line: e.Line, Time: e.Time}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		b.publish(Subject(b.prefix, SubjectRejected), msg)
	}
}

// HandleCommand issues one request and returns the encoded reply.
func (b *Bridge) HandleCommand(ctx context.Context, data []byte) []byte {
	reply := CommandReply{OK: true}

	msg, err := ParseCommandRequest(data)
	if err == nil {
		reply.DelayMS = msg.Delay().Milliseconds()
		err = b.adapter.Issue(ctx, msg)
	}
	if err != nil {
		b.log.Debug().Err(err).Msg("command request failed")
		reply = CommandReply{Error: err.Error()}
	}

	out, _ := json.Marshal(reply)
	return out
}

func (b *Bridge) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		b.log.Error().Err(err).Str("subject", subject).Msg("encode failed")
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.log.Warn().Err(err).Str("subject", subject).Msg("publish failed")
	}
}

func (b *Bridge) storeSnapshot(ctx context.Context) {
	if b.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.cache.HSet(ctx, b.redisKey, SnapshotHash(b.adapter.State().Snapshot())).Err(); err != nil {
		b.log.Warn().Err(err).Str("key", b.redisKey).Msg("cache update failed")
	}
}
