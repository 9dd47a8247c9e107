package rabbitmq

import amqp "github.com/rabbitmq/amqp091-go"

const headerDeath = "x-death"

// DeathCount returns how many times a message has been dead-lettered out of
// queue, read from the broker's x-death header. Missing or malformed metadata counts as 0.
func DeathCount(headers amqp.Table, queue string) int {
	entries, ok := headers[headerDeath].([]interface{})
	if !ok {
		return 0
	}

	for _, e := range entries {
		var entry map[string]interface{}
		switch v := e.(type) {
		case amqp.Table:
			entry = v
		case map[string]interface{}:
			entry = v
		default:
			continue
		}

		if q, _ := entry["queue"].(string); q != queue {
			continue
		}
		return toCount(entry["count"])
	}
	return 0
}

func toCount(v interface{}) int {
	var n int64
	switch c := v.(type) {
	case int64:
		n = c
	case int32:
		n = int64(c)
	case int:
		n = int64(c)
	case float64:
		n = int64(c)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
