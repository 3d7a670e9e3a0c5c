package event

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linchenxuan/lumber/log"
)

var (
	// ErrTopicExists is returned when a topic is created twice.
	ErrTopicExists = errors.New("topic already created")
	// ErrTopicNotFound is returned for operations on a topic never created.
	ErrTopicNotFound = errors.New("topic not created")
	// ErrPublishTimeout is returned when subscribers outlive the topic timeout.
	ErrPublishTimeout = errors.New("publish timed out")
)

// Publisher includes multiple topics.
type Publisher struct {
	lock   sync.RWMutex
	topics map[string]*Topic // Subscriber information.
}

// NewPublisher creates a publisher without topics.
func NewPublisher() *Publisher {
	return &Publisher{topics: make(map[string]*Topic)}
}

// NewTopic must create a topic before you can initiate a subscription.
func (p *Publisher) NewTopic(topicName string, timeout time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, ok := p.topics[topicName]; ok {
		return fmt.Errorf("%w: %s", ErrTopicExists, topicName)
	}
	p.topics[topicName] = &Topic{
		timeout:     timeout,
		subscribers: []Subscriber{},
	}
	return nil
}

// EnsureTopic creates the topic unless it already exists.
func (p *Publisher) EnsureTopic(topicName string, timeout time.Duration) {
	if err := p.NewTopic(topicName, timeout); err != nil && !errors.Is(err, ErrTopicExists) {
		log.Error().Err(err).Str("topic", topicName).Msg("create topic")
	}
}

// RegisterSubscriber registers a subscriber.
func (p *Publisher) RegisterSubscriber(topicName string, fn Subscriber) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, topicName)
	}

	topic.subscribers = append(topic.subscribers, fn)
	log.Debug().Str("topic", topicName).
		Int("num", len(topic.subscribers)).Msg("add subscribers")
	return nil
}

// Publish delivers i to every subscriber of the topic concurrently and waits
// for them, up to the topic timeout when one is set. A panicking subscriber
// is logged and does not affect the others.
func (p *Publisher) Publish(topicName string, i any) error {
	p.lock.RLock()
	topic, ok := p.topics[topicName]
	var subs []Subscriber
	var timeout time.Duration
	if ok {
		subs = append(subs, topic.subscribers...)
		timeout = topic.timeout
	}
	p.lock.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, topicName)
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("topic", topicName).Any("panic", fmt.Sprint(r)).Msg("subscriber panicked")
				}
			}()
			sub(i)
		}()
	}

	if timeout <= 0 {
		wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s after %s", ErrPublishTimeout, topicName, timeout)
	}
}
