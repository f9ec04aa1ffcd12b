package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "locus:geocode:"

// Valkey shares geocode results between service instances through Valkey.
type Valkey struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkey connects to the Valkey server at addr.
func NewValkey(addr string, ttl time.Duration) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}

	return NewValkeyWithClient(client, ttl), nil
}

// NewValkeyWithClient wraps an existing client.
func NewValkeyWithClient(client valkey.Client, ttl time.Duration) *Valkey {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Valkey{client: client, ttl: ttl}
}

// Get returns the cached coordinate for key, or nil on a miss.
func (v *Valkey) Get(ctx context.Context, key string) (*models.Coordinates, error) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(keyPrefix+key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil //nolint:nilnil // a miss is not an error
		}
		return nil, fmt.Errorf("valkey get: %w", err)
	}

	raw, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("valkey read: %w", err)
	}

	var coords models.Coordinates
	if err = json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("decode cached coordinates: %w", err)
	}

	return &coords, nil
}

// Set stores coords under key with the configured TTL.
func (v *Valkey) Set(ctx context.Context, key string, coords models.Coordinates) error {
	raw, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("encode coordinates: %w", err)
	}

	cmd := v.client.B().Set().Key(keyPrefix + key).Value(string(raw)).Ex(v.ttl).Build()
	if err = v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}

	return nil
}

// Ping checks the connection.
func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (v *Valkey) Close() {
	v.client.Close()
}
