package redis

import "github.com/redis/go-redis/v9"

// KEYS[1] record hash, KEYS[2] id sequence, KEYS[3] id-ordered index.
// Returns the new id, or 0 when the short code already exists.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local id = redis.call('INCR', KEYS[2])
redis.call('HSET', KEYS[1],
	'id', id,
	'url', ARGV[1],
	'short_code', ARGV[2],
	'created_at', ARGV[3],
	'updated_at', ARGV[4],
	'access_count', ARGV[5])
redis.call('ZADD', KEYS[3], id, ARGV[2])
return id
`)

// KEYS[1] record hash. Returns the full hash after the increment, or nil.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'access_count', 1)
return redis.call('HGETALL', KEYS[1])
`)

// KEYS[1] record hash. Returns rows affected.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'url', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

// KEYS[1] record hash, KEYS[2] index. Returns rows affected.
var deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
if n > 0 then
	redis.call('ZREM', KEYS[2], ARGV[1])
end
return n
`)
