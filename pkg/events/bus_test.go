package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := New()
	var got []string

	bus.Subscribe(TopicCriteria, func(payload any) { got = append(got, "first:"+payload.(string)) })
	bus.Subscribe(TopicFindReplace, func(payload any) { got = append(got, "other") })
	bus.Subscribe(TopicCriteria, func(payload any) { got = append(got, "second:"+payload.(string)) })

	n := bus.Publish(TopicCriteria, "a")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first:a", "second:a"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	calls := 0
	unsubscribe := bus.Subscribe(TopicCriteria, func(any) { calls++ })
	keep := 0
	bus.Subscribe(TopicCriteria, func(any) { keep++ })

	bus.Publish(TopicCriteria, nil)
	unsubscribe()
	unsubscribe()
	bus.Publish(TopicCriteria, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, keep)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := New()
	var got []Topic
	bus.Subscribe(TopicCriteria, func(any) {
		got = append(got, TopicCriteria)
		bus.Publish(TopicFindReplace, nil)
	})
	bus.Subscribe(TopicFindReplace, func(any) { got = append(got, TopicFindReplace) })

	bus.Publish(TopicCriteria, nil)
	assert.Equal(t, []Topic{TopicCriteria, TopicFindReplace}, got)
}

func TestBus_NoSubscribers(t *testing.T) {
	assert.Equal(t, 0, New().Publish(TopicCriteria, "x"))
}
