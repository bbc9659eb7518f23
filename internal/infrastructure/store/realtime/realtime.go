// Package realtime implements the online document store over redis. Each
// collection is one hash (field = document ID, value = JSON), writes publish
// the changed ID on a per-collection channel, and watchers on any connected
// process re-read through the shared change feed. Documents get push-key IDs
// so concurrently created entities sort by creation time.
package realtime

import (
	"context"
	"strconv"
	"strings"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/bytebufferpool"

	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	idgen "github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

const (
	keyPrefix     = "sk:"
	changePrefix  = "sk:changes:"
	changePattern = changePrefix + "*"

	txAttempts = 8
)

type Backend struct {
	client redis.UniversalClient
	gen    *idgen.PushKeyGenerator
	hub    *store.Hub
	logger *logging.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewBackend(client redis.UniversalClient, logger *logging.Logger) *Backend {
	if logger == nil {
		logger = logging.Default()
	}
	return &Backend{
		client: client,
		gen:    idgen.NewPushKeyGenerator(),
		hub:    store.NewHub(),
		logger: logger,
	}
}

// Open parses a redis URL, connects, and verifies the connection.
func Open(ctx context.Context, redisURL string, logger *logging.Logger) (*Backend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Mark(errors.Wrap(err, "ping realtime store"), store.ErrTransientStore)
	}

	b := NewBackend(client, logger)
	b.Start(ctx)
	return b, nil
}

// Start opens the change-feed subscription. Without it writes still work but
// Subscribe channels only see this process's own changes relayed locally.
func (b *Backend) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return
	}

	b.pubsub = b.client.PSubscribe(ctx, changePattern)
	b.done = make(chan struct{})
	go b.pump()
}

// pump bridges redis pub/sub messages into the in-process hub. go-redis
// reconnects the subscription itself; the channel closes only on Close.
func (b *Backend) pump() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		collection := strings.TrimPrefix(msg.Channel, changePrefix)
		b.hub.Notify(store.Change{Collection: collection, ID: msg.Payload})
	}
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		return b.client.Close()
	}

	err := b.pubsub.Close()
	<-b.done
	b.pubsub = nil
	return errors.CombineErrors(err, b.client.Close())
}

func hashKey(collection string) string {
	return keyPrefix + collection
}

func (b *Backend) Put(ctx context.Context, collection, id string, data []byte) error {
	if err := b.client.HSet(ctx, hashKey(collection), id, string(data)).Err(); err != nil {
		return errors.Mark(errors.Wrapf(err, "write %s/%s", collection, id), store.ErrTransientStore)
	}

	b.publish(ctx, collection, id)
	return nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	data, err := b.client.HGet(ctx, hashKey(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Mark(errors.Wrapf(err, "read %s/%s", collection, id), store.ErrTransientStore)
	}
	return []byte(data), true, nil
}

func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	if err := b.client.HDel(ctx, hashKey(collection), id).Err(); err != nil {
		return errors.Mark(errors.Wrapf(err, "delete %s/%s", collection, id), store.ErrTransientStore)
	}

	b.publish(ctx, collection, id)
	return nil
}

func (b *Backend) List(ctx context.Context, collection string) ([]store.RawDoc, error) {
	fields, err := b.client.HGetAll(ctx, hashKey(collection)).Result()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "list %s", collection), store.ErrTransientStore)
	}

	docs := make([]store.RawDoc, 0, len(fields))
	for id, data := range fields {
		docs = append(docs, store.RawDoc{ID: id, Data: []byte(data)})
	}
	return docs, nil
}

func (b *Backend) MergeField(ctx context.Context, collection, id, field string, value []byte) error {
	var raw interface{}
	if err := sonic.Unmarshal(value, &raw); err != nil {
		return errors.Mark(errors.Wrapf(err, "merge value for %s/%s.%s", collection, id, field), store.ErrInvalidArgument)
	}

	err := b.transact(ctx, collection, id, func(doc map[string]interface{}) error {
		doc[field] = raw
		return nil
	})
	return err
}

func (b *Backend) Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error) {
	var committed int64
	err := b.transact(ctx, collection, id, func(doc map[string]interface{}) error {
		current, err := numericField(doc[field])
		if err != nil {
			return errors.Wrapf(err, "field %s/%s.%s", collection, id, field)
		}
		committed = current + delta
		doc[field] = committed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return committed, nil
}

// transact runs an optimistic read-modify-write on one document. The hash
// key is WATCHed, so any interleaved write to the collection aborts the
// MULTI and the mutation is retried against fresh state.
func (b *Backend) transact(ctx context.Context, collection, id string, mutate func(map[string]interface{}) error) error {
	key := hashKey(collection)

	txn := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, id).Result()
		doc := map[string]interface{}{}
		switch {
		case errors.Is(err, redis.Nil):
			// missing document: the mutation creates it
		case err != nil:
			return err
		default:
			if err := sonic.Unmarshal([]byte(data), &doc); err != nil {
				return errors.Mark(errors.Wrapf(err, "decode %s/%s", collection, id), store.ErrInvalidArgument)
			}
		}

		if err := mutate(doc); err != nil {
			return err
		}

		out, err := sonic.Marshal(doc)
		if err != nil {
			return errors.Wrapf(err, "encode %s/%s", collection, id)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, string(out))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txAttempts; attempt++ {
		err := b.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, store.ErrInvalidArgument) {
				return err
			}
			return errors.Mark(errors.Wrapf(err, "transact %s/%s", collection, id), store.ErrTransientStore)
		}

		b.publish(ctx, collection, id)
		return nil
	}

	return errors.Mark(errors.Newf("transact %s/%s: retry budget exhausted", collection, id), store.ErrTransactionAbort)
}

func numericField(v interface{}) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errors.Mark(errors.Wrap(err, "non-numeric field"), store.ErrInvalidArgument)
		}
		return parsed, nil
	default:
		return 0, errors.Mark(errors.Newf("non-numeric field %T", v), store.ErrInvalidArgument)
	}
}

func (b *Backend) NewID() (string, error) {
	return b.gen.NewID()
}

func (b *Backend) Subscribe(collection string) (<-chan store.Change, func()) {
	return b.hub.Subscribe(collection)
}

// publish fans the change out to every connected process. When pub/sub is
// down the local hub is still notified directly so this process's own
// watchers stay live.
func (b *Backend) publish(ctx context.Context, collection, id string) {
	buf := bytebufferpool.Get()
	buf.WriteString(changePrefix) //nolint:errcheck
	buf.WriteString(collection)   //nolint:errcheck
	channel := buf.String()
	bytebufferpool.Put(buf)

	if err := b.client.Publish(ctx, channel, id).Err(); err != nil {
		b.logger.WarnContext(ctx, "realtime publish failed, local watchers notified directly",
			"collection", collection, "id", id, "error", err)
		b.hub.Notify(store.Change{Collection: collection, ID: id})
	}
}
