package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/notification"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background services like notification delivery.`,
}

// Notification worker command
var notificationWorkerCmd = &cobra.Command{
	Use:   "notification",
	Short: "Start notification delivery worker pool",
	Long:  `Start the notification worker pool that delivers customer messages to the configured webhook`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	webhookURL   string
	sendTimeout  time.Duration
	maxRetries   int
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(config.Logging.Level, config.Logging.Format)
	log := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	notificationConfig := internal.NotificationConfig{
		WebhookURL:   getStringFlag(webhookURL, config.Notification.WebhookURL),
		MaxWorkers:   getIntFlag(maxWorkers, config.Notification.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, config.Notification.JobQueueSize),
		SendTimeout:  getDurationFlag(sendTimeout, config.Notification.SendTimeout),
		MaxRetries:   getIntFlag(maxRetries, config.Notification.MaxRetries),
	}

	log.Info("starting notification worker",
		"max_workers", notificationConfig.MaxWorkers,
		"job_queue_size", notificationConfig.JobQueueSize,
		"webhook_url", notificationConfig.WebhookURL,
		"send_timeout", notificationConfig.SendTimeout,
		"max_retries", notificationConfig.MaxRetries)

	dispatcher := notification.NewDispatcher(notificationConfig, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("notification worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Notification webhook URL (overrides config)")
	notificationWorkerCmd.Flags().DurationVar(&sendTimeout, "send-timeout", 0, "Delivery timeout per attempt (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Delivery retry attempts (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
