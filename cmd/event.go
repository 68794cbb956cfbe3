package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/aims-commerce/internal/core/events"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events, monitor event bus, inspect handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test domain event to the event bus for testing and debugging. Supported types: order.created, order.cancelled, payment.processed, payment.failed`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventOrderID    int64
	eventCustomerID int64
	eventAmount     int64
)

func publishTestEvent(eventType string) error {
	log := logger.LoggerWrapper()

	var event events.Event
	switch eventType {
	case events.EventTypeOrderCreated:
		event = events.NewOrderCreatedEvent(eventOrderID, eventCustomerID, eventAmount, "VND", "vnpay")
	case events.EventTypeOrderCancelled:
		event = events.NewOrderCancelledEvent(eventOrderID, eventCustomerID, "cli test", false)
	case events.EventTypePaymentProcessed:
		event = events.NewPaymentProcessedEvent(eventOrderID, fmt.Sprintf("cli-%d", time.Now().Unix()), eventAmount, "vnpay", "NCB")
	case events.EventTypePaymentFailed:
		event = events.NewPaymentFailedEvent(eventOrderID, fmt.Sprintf("cli-%d", time.Now().Unix()), eventAmount, "24", "cancelled at gateway")
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	store := events.NewStore()
	eventBus := events.NewEventBus(store, log)

	eventBus.Subscribe(eventType, 1, func(ctx context.Context, event events.Event) error {
		log.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID())
		return nil
	})

	log.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	eventBus.Publish(context.Background(), event)

	log.Info("test event published", "stored_events", store.Len())
	return nil
}

func init() {

	publishEventCmd.Flags().Int64Var(&eventOrderID, "order-id", 1, "Order ID carried by the event")
	publishEventCmd.Flags().Int64Var(&eventCustomerID, "customer-id", 1, "Customer ID carried by the event")
	publishEventCmd.Flags().Int64Var(&eventAmount, "amount", 100000, "Amount in VND carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
