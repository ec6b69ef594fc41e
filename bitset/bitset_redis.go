package bitset

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/newsketch/newsketch"
	"github.com/redis/go-redis/v9"
)

// BitSetRedis keeps the bit vector in a redis string so a filter built
// here can be reopened elsewhere with the same hash family and behave
// identically. Every operation round-trips to redis.
type BitSetRedis struct {
	size uint
	key  string
}

func NewBitSetRedis(size uint, key string) *BitSetRedis {
	if key == "" {
		key = newsketch.GenerateRandomString(16)
	}
	bytes := make([]byte, (size+7)/8)
	_ = newsketch.GetRedisClient().Set(context.Background(), key, string(bytes), 0).Err()
	return &BitSetRedis{size, key}
}

// FromRedisKey reopens a bit vector previously written under key.
func FromRedisKey(key string) (*BitSetRedis, error) {
	setVal, err := newsketch.GetRedisClient().Get(context.Background(), key).Result()
	if err != nil {
		return nil, err
	}
	return &BitSetRedis{uint(len(setVal) * 8), key}, nil
}

func (bitSet *BitSetRedis) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetRedis) Key() string {
	return bitSet.key
}

func (bitSet *BitSetRedis) Has(index uint) (bool, error) {
	val, err := newsketch.GetRedisClient().GetBit(context.Background(), bitSet.key, int64(index)).Result()
	if err != nil {
		return false, err
	}
	return val != 0, nil
}

func (bitSet *BitSetRedis) HasMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("newsketch: at least 1 index is required")
	}
	pipe := newsketch.GetRedisClient().Pipeline()
	ctx := context.Background()
	values := make([]*redis.IntCmd, len(indexes))
	for i := range indexes {
		values[i] = pipe.GetBit(ctx, bitSet.key, int64(indexes[i]))
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

func (bitSet *BitSetRedis) Insert(index uint) (bool, error) {
	err := newsketch.GetRedisClient().SetBit(context.Background(), bitSet.key, int64(index), 1).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) InsertMulti(indexes []uint) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("newsketch: at least 1 index is required")
	}
	pipe := newsketch.GetRedisClient().Pipeline()
	ctx := context.Background()
	for i := range indexes {
		pipe.SetBit(ctx, bitSet.key, int64(indexes[i]), 1)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) Clear() error {
	bytes := make([]byte, (bitSet.size+7)/8)
	return newsketch.GetRedisClient().Set(context.Background(), bitSet.key, string(bytes), 0).Err()
}

func (aSet *BitSetRedis) Equals(otherBitSet IBitSet) (bool, error) {
	bSet, ok := otherBitSet.(*BitSetRedis)
	if !ok {
		return false, fmt.Errorf("newsketch: invalid bitset type, should be BitSetRedis")
	}
	aSetVal, err := newsketch.GetRedisClient().Get(context.Background(), aSet.key).Result()
	if err != nil {
		return false, err
	}
	bSetVal, err := newsketch.GetRedisClient().Get(context.Background(), bSet.key).Result()
	if err != nil {
		return false, err
	}
	return aSetVal == bSetVal, nil
}

func (bitSet *BitSetRedis) BitCount() (uint, error) {
	bitRange := &redis.BitCount{Start: 0, End: -1}
	val, err := newsketch.GetRedisClient().BitCount(context.Background(), bitSet.key, bitRange).Result()
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

func (bitSet *BitSetRedis) Export() (uint, []byte, error) {
	val, err := newsketch.GetRedisClient().Get(context.Background(), bitSet.key).Result()
	if err != nil {
		return 0, nil, err
	}
	buf := make([]byte, 8, 8+len(val))
	binary.BigEndian.PutUint64(buf, uint64(bitSet.size))
	buf = append(buf, val...)
	data, err := json.Marshal(base64.URLEncoding.EncodeToString(buf))
	if err != nil {
		return 0, nil, err
	}
	return bitSet.size, data, nil
}

func (bitSet *BitSetRedis) Import(data []byte) (bool, error) {
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return false, err
	}
	bytes, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return false, err
	}
	if len(bytes) < 8 {
		return false, fmt.Errorf("newsketch: bitset payload too short")
	}
	bitSet.size = uint(binary.BigEndian.Uint64(bytes[:8]))
	err = newsketch.GetRedisClient().Set(context.Background(), bitSet.key, string(bytes[8:]), 0).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}
