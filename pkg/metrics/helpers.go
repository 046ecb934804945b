package metrics

func RecordCacheHit(keyPrefix string) {
	RedisCacheHits.WithLabelValues(keyPrefix).Inc()
}

func RecordCacheMiss(keyPrefix string) {
	RedisCacheMisses.WithLabelValues(keyPrefix).Inc()
}

func RecordKafkaProduced(topic string) {
	KafkaMessagesProduced.WithLabelValues(topic).Inc()
}

func RecordKafkaError(topic string) {
	KafkaErrors.WithLabelValues(topic).Inc()
}

func RecordReviewRejected(reason string) {
	ReviewsRejected.WithLabelValues(reason).Inc()
}
