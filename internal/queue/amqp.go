package queue

import (
	"github.com/streadway/amqp"
)

// AMQPExecutor publishes delivery tasks to a durable RabbitMQ queue for
// the standalone worker binary to consume. It satisfies the same
// Executor contract as the in-process pool.
type AMQPExecutor struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func DialAMQP(url, queueName string) (*AMQPExecutor, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPExecutor{conn: conn, ch: ch, queue: queueName}, nil
}

func (q *AMQPExecutor) Submit(t Task) error {
	body, err := EncodeTask(t)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		q.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume returns the delivery channel the worker binary ranges over.
func (q *AMQPExecutor) Consume() (<-chan amqp.Delivery, error) {
	return q.ch.Consume(
		q.queue,
		"",
		false, // autoAck off, ack after the outcome is recorded
		false,
		false,
		false,
		nil,
	)
}

func (q *AMQPExecutor) Close() {
	q.ch.Close()
	q.conn.Close()
}

var _ Executor = (*AMQPExecutor)(nil)
