package queue

import (
	"fmt"

	"go.uber.org/zap"
)

// SubjectReportGenerated carries report generation events for
// downstream consumers (audit, cache warmers).
const SubjectReportGenerated = "reports.generated"

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New builds a queue adapter for the configured driver.
func New(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch driver {
	case "nats":
		return NewNATSQueue(url, log)
	case "rabbitmq":
		return NewRabbitMQQueue(url, log)
	default:
		return nil, fmt.Errorf("unsupported queue driver: %s", driver)
	}
}
