package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/signature"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

type notifyOptions struct {
	url             string
	crc             string
	orderID         string
	sessionPrefix   string
	externalOrderID string
	amount          int64
	currency        string
	asJSON          bool
	dryRun          bool
}

// notifyCmd posts a correctly signed gateway notification, the way the
// gateway would after a payment.
func notifyCmd() *cobra.Command {
	opts := notifyOptions{}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a signed transaction notification to the webhook",
		Long: `Build a gateway transaction notification for an order, sign it with the
merchant CRC and post it to the webhook.

Examples:
  paymentsctl notify --order O1 --external-order 317000 --amount 4250
  paymentsctl notify --order O1 --external-order 317000 --amount 4250 --json --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "http://localhost:8080/payments/notify", "webhook URL")
	f.StringVar(&opts.crc, "crc", os.Getenv("PAYMENTS_GATEWAY__CRC"), "merchant CRC key")
	f.StringVar(&opts.orderID, "order", "", "local order id")
	f.StringVar(&opts.sessionPrefix, "session-prefix", domain.DefaultSessionPrefix, "session id prefix")
	f.StringVar(&opts.externalOrderID, "external-order", "", "gateway order id")
	f.Int64Var(&opts.amount, "amount", 0, "amount in minor units")
	f.StringVar(&opts.currency, "currency", "PLN", "ISO currency code")
	f.BoolVar(&opts.asJSON, "json", false, "send a JSON body instead of a form")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the notification without sending it")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("external-order")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runNotify(cmd *cobra.Command, opts notifyOptions) error {
	if opts.crc == "" {
		return fmt.Errorf("crc not provided and PAYMENTS_GATEWAY__CRC not set")
	}

	sessionID := domain.SessionIDFor(opts.sessionPrefix, opts.orderID)
	currency := strings.ToUpper(opts.currency)
	sign, err := signature.Sign(signature.VerificationFields(sessionID, opts.externalOrderID, opts.amount, currency, opts.crc))
	if err != nil {
		return fmt.Errorf("sign notification: %w", err)
	}

	fields := map[string]string{
		"sessionId": sessionID,
		"orderId":   opts.externalOrderID,
		"amount":    strconv.FormatInt(opts.amount, 10),
		"currency":  currency,
		"sign":      sign,
	}

	out := cmd.OutOrStdout()
	for _, k := range []string{"sessionId", "orderId", "amount", "currency", "sign"} {
		fmt.Fprintf(out, "%s=%s\n", k, fields[k])
	}
	if opts.dryRun {
		return nil
	}

	req := resty.New().R().SetContext(cmd.Context())
	if opts.asJSON {
		req.SetHeader("Content-Type", "application/json").SetBody(map[string]any{
			"sessionId": sessionID,
			"orderId":   opts.externalOrderID,
			"amount":    opts.amount,
			"currency":  currency,
			"sign":      sign,
		})
	} else {
		req.SetFormData(fields)
	}

	resp, err := req.Post(opts.url)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n%s\n", resp.Status(), resp.String())
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d", resp.StatusCode())
	}
	return nil
}
