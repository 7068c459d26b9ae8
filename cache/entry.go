package cache

import "time"

// envelope 缓存条目的统一载体，两种后端共用。
// Payload 由序列化器编码，逻辑过期判断只依赖 StoredAt 与 TTL。
type envelope struct {
	Payload  []byte        `json:"payload" msgpack:"payload"`
	StoredAt time.Time     `json:"stored_at" msgpack:"stored_at"`
	TTL      time.Duration `json:"ttl" msgpack:"ttl"`
}

// expired 判断条目在 now 时刻是否已逻辑过期
func (e *envelope) expired(now time.Time) bool {
	return now.After(e.StoredAt.Add(e.TTL))
}
