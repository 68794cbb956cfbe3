package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/aims-commerce/internal/payment"
	paymentpostgres "github.com/frahmantamala/aims-commerce/internal/payment/postgres"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile payment transactions against VNPay",
	Long: `Finalize pending refunds by querying the gateway, and report transactions
stuck in initiated whose payment sessions have expired.`,
	Run: func(cmd *cobra.Command, args []string) {
		runReconcile()
	},
}

var staleAge time.Duration

func runReconcile() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(config.Logging.Level, config.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		log.Error("failed to initialize gorm", "error", err)
		os.Exit(1)
	}

	gateway := vnpay.NewGateway(vnpay.Config{
		TmnCode:        config.VNPay.TmnCode,
		HashSecret:     config.VNPay.HashSecret,
		PayURL:         config.VNPay.PayURL,
		APIURL:         config.VNPay.APIURL,
		ReturnURL:      config.VNPay.ReturnURL,
		Version:        config.VNPay.Version,
		TimeoutMinutes: config.VNPay.TimeoutMinutes,
		HTTPTimeout:    config.VNPay.HTTPTimeout,
		MaxRetries:     config.VNPay.MaxRetries,
	}, log)

	repo := paymentpostgres.NewPaymentRepository(gormDB)
	vnpayService := payment.NewVNPayService(gateway, repo, log)

	ctx := context.Background()

	finalized, err := vnpayService.FinalizeRefunds(ctx)
	if err != nil {
		log.Error("refund reconciliation failed", "error", err)
		os.Exit(1)
	}
	log.Info("refund reconciliation complete", "finalized", finalized)

	stale, err := vnpayService.StaleInitiated(staleAge)
	if err != nil {
		log.Error("stale transaction sweep failed", "error", err)
		os.Exit(1)
	}

	for _, txn := range stale {
		log.Warn("transaction stuck in initiated",
			"txn_ref", txn.TxnRef,
			"order_id", txn.OrderID,
			"amount", txn.Amount,
			"created_at", txn.CreatedAt)
	}
	log.Info("stale transaction sweep complete", "stale", len(stale), "older_than", staleAge)
}

func init() {
	reconcileCmd.Flags().DurationVar(&staleAge, "stale-age", time.Hour, "Age after which an initiated transaction counts as stale")

	rootCmd.AddCommand(reconcileCmd)
}
