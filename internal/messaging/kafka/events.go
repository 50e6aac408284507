package kafka

// Topics для Kafka.
const (
	TopicOrderEvents     = "rms.order.events"
	TopicDeadLetterQueue = "rms.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOriginalTopic = "x-original-topic"
)
