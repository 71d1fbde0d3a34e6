package servicebus

import (
	"context"
	"errors"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"linkhub/domain/repository"
	"linkhub/infrastructure/logger"
)

// NewServiceBus prefers AZURE_SERVICEBUS_CONNECTION_STRING and falls back to
// the default Azure credential chain against the namespace.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if cs := os.Getenv("AZURE_SERVICEBUS_CONNECTION_STRING"); cs != "" {
		return azservicebus.NewClientFromConnectionString(cs, nil)
	}
	if namespace == "" {
		return nil, errors.New("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// QueuePublisher sends notification events to a Service Bus queue
type QueuePublisher struct {
	client *azservicebus.Client
	queue  string
}

func NewQueuePublisher(client *azservicebus.Client, queue string) *QueuePublisher {
	return &QueuePublisher{client: client, queue: queue}
}

var _ repository.IEventPublisher = (*QueuePublisher)(nil)

func (q *QueuePublisher) Publish(ctx context.Context, payload []byte) error {
	if q.client == nil {
		return errors.New("service bus client not configured")
	}
	sender, err := q.client.NewSender(q.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender) {
		if err := sender.Close(context.Background()); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender)

	contentType := "application/json"
	return sender.SendMessage(ctx, &azservicebus.Message{Body: payload, ContentType: &contentType}, nil)
}
