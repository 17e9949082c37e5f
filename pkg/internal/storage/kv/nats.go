package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/kitvault/pkg/configs"
)

// natsStore JetStream KV bucket. bucket 级 max_age 作为兜底清理，按键过期仍由 expiring 判断.
type natsStore struct {
	nc *nats.Conn
	kv nats.KeyValue
}

// NewNATSKV NATS KV 后端，bucket 不存在时创建.
func NewNATSKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	nc := cfg.NATS

	opts := []nats.Option{nats.Name(configs.AppName + "-kv")}
	if nc.User != "" {
		opts = append(opts, nats.UserInfo(nc.User, nc.Password))
	}

	conn, err := nats.Connect(nc.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", nc.URL, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	bucket, err := js.KeyValue(nc.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      nc.Bucket,
			Description: "kitvault kit cache",
			History:     1,
			TTL:         nc.TTL,
		})
	}

	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("kv bucket %s: %w", nc.Bucket, err)
	}

	return withExpiry(&natsStore{nc: conn, kv: bucket}), nil
}

func (n *natsStore) load(_ context.Context, key string) ([]byte, bool, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *natsStore) store(_ context.Context, key string, b []byte) error {
	if _, err := n.kv.Put(key, b); err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}

	return nil
}

func (n *natsStore) remove(_ context.Context, key string) error {
	if err := n.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv delete %s: %w", key, err)
	}

	return nil
}

func (n *natsStore) list(context.Context) ([]string, error) {
	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv keys: %w", err)
	}

	return keys, nil
}

func (n *natsStore) Close() error {
	n.nc.Close()
	return nil
}

func init() {
	Register(KVTypeNATS, NewNATSKV)
}
