// Package types contains common types used across the application
package types

import "time"

// Topic names a family of stored rows that observers can watch.
type Topic string

// Known change topics.
const (
	TopicPlayers   Topic = "players"
	TopicExercises Topic = "exercises"
	TopicPlans     Topic = "plans"
)

// Topics lists every topic in a stable order.
var Topics = []Topic{TopicPlayers, TopicExercises, TopicPlans}

// ParseTopic returns the topic named s, if known.
func ParseTopic(s string) (Topic, bool) {
	for _, t := range Topics {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Change signals that rows under Topic were written.
// Observers re-read the collection; the change itself carries no rows.
type Change struct {
	Topic Topic     `json:"topic"`
	At    time.Time `json:"at"`
}
