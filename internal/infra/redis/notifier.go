package redis

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// resultsChannel carries best-effort "results changed" signals. Consumers
// use it only to refresh cached lists; correctness never depends on
// delivery.
const resultsChannel = "results:changed"

// Notifier publishes grading change events over Redis pub/sub.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// ResultsChanged announces that a year's result rows were rewritten.
func (n *Notifier) ResultsChanged(ctx context.Context, year int) {
	if err := n.client.Publish(ctx, resultsChannel, strconv.Itoa(year)).Err(); err != nil {
		log.Printf("results-changed publish failed: %v", err)
	}
}

// SubscribeResultsChanged returns a channel of years whose results changed
// and a cancel function releasing the subscription.
func (n *Notifier) SubscribeResultsChanged(ctx context.Context) (<-chan int, func()) {
	pubsub := n.client.Subscribe(ctx, resultsChannel)
	out := make(chan int, 8)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			year, err := strconv.Atoi(msg.Payload)
			if err != nil {
				continue
			}
			select {
			case out <- year:
			default:
				// slow consumers drop signals; they can refresh anytime
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }
}
