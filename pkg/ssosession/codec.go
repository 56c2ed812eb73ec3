package ssosession

import (
	"encoding/json"
	"sync"
)

// Decoder turns a stored JSON payload back into a typed value.
type Decoder func(data []byte) (any, error)

// JSONDecoder decodes into T. T's UnmarshalJSON may accept alternative
// shapes; whatever it produces is what Get returns.
func JSONDecoder[T any]() Decoder {
	return func(data []byte) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// codec is JSON with optional per-key decoders. Keys without a decoder come
// back as the generic JSON shapes (map[string]any, []any, float64, ...).
type codec struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

func newCodec() *codec {
	return &codec{decoders: make(map[string]Decoder)}
}

func (c *codec) register(key string, dec Decoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dec == nil {
		delete(c.decoders, key)
		return
	}
	c.decoders[key] = dec
}

func (c *codec) decoder(key string) (Decoder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dec, ok := c.decoders[key]
	return dec, ok
}

func (c *codec) encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (c *codec) decode(key string, data []byte) (any, error) {
	if dec, ok := c.decoder(key); ok {
		return dec(data)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// normalize runs value through encode and the key's decoder so a value held in
// a non-canonical shape is stored canonically. Without a decoder, or when the
// round trip fails, value is returned unchanged.
func (c *codec) normalize(key string, value any) any {
	dec, ok := c.decoder(key)
	if !ok {
		return value
	}
	data, err := c.encode(value)
	if err != nil {
		return value
	}
	if v, err := dec(data); err == nil {
		return v
	}
	return value
}
