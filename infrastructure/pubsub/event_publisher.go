package pubsub

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/pubsub"

	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
)

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// EventPublisher sends notification events to one Pub/Sub topic,
// creating the topic on first use when it does not exist.
type EventPublisher struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewEventPublisher(client *pubsub.Client, topicID string) *EventPublisher {
	return &EventPublisher{client: client, topicID: topicID}
}

var _ repository.IEventPublisher = (*EventPublisher)(nil)

func (p *EventPublisher) Publish(ctx context.Context, payload []byte) error {
	topic, err := p.resolveTopic(ctx)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).Debug("Message published")
	return nil
}

func (p *EventPublisher) resolveTopic(ctx context.Context) (*pubsub.Topic, error) {
	if p.client == nil {
		return nil, errors.New("pubsub client not configured")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicID); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes pending messages
func (p *EventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
