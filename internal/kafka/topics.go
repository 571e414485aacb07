package kafka

import (
	"log"
	"strings"

	"github.com/segmentio/kafka-go"
)

// EnsureTopicsExist creates the given topics if they don't already exist.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		topicConfigs := []kafka.TopicConfig{
			{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		}

		if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("Topic %s already exists", topic)
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
		}
	}
	return nil
}
