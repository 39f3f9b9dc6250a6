package queue

import (
	"github.com/dynoform/composer/internal/modules/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ service.EventPublisher = (*Publisher)(nil)

// Dial returns a DialFunc bound to the given broker URL.
func Dial(url string) DialFunc {
	return func() (*amqp.Connection, error) {
		return amqp.Dial(url)
	}
}
