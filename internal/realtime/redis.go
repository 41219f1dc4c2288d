package realtime

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel per user. Every instance publishes here after persisting a
// message, so counterparts connected to other instances still get a
// live push.
const userChannelPrefix = "relay:user:"

func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

func NewRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	log.Printf("Redis client created (addr: %s)", redisAddr)
	return rdb
}

// RunBridge subscribes to all user channels and forwards each payload to
// the local hub. Payloads for users connected elsewhere are dropped here
// and delivered by whichever instance holds their connection.
func RunBridge(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, userChannelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			raw := strings.TrimPrefix(msg.Channel, userChannelPrefix)
			userID, err := uuid.Parse(raw)
			if err != nil {
				log.Printf("Bridge: bad channel %q: %v", msg.Channel, err)
				continue
			}
			hub.SendRaw(userID, []byte(msg.Payload))
		}
	}
}
