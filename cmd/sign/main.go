// sign prints the signature header value of a webhook payload so deliveries
// can be sent by hand.
//
//	curl -H "Content-Type: application/json" \
//		-H "X-Gitea-Signature: $(sign --secret "$LOHR_SECRET" payload.json)" \
//		--data-binary @payload.json http://localhost:8000/
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/utilitywarehouse/lohr/payload"
	"github.com/utilitywarehouse/lohr/signature"
)

var (
	log = slog.Default()
)

func main() {
	cmd := &cli.Command{
		Name:      "sign",
		Usage:     "print HMAC-SHA256 signature of the webhook payload",
		ArgsUsage: "<payload file|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "secret",
				Usage:    "shared secret used by lohr to verify signatures",
				Sources:  cli.EnvVars("LOHR_SECRET"),
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "verify payload can be parsed by lohr before signing",
				Value: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("exactly one payload file is required")
			}

			body, err := readPayload(cmd.Args().First())
			if err != nil {
				return err
			}

			if cmd.Bool("validate") {
				repo, err := payload.Parse(body)
				if err != nil {
					return fmt.Errorf("invalid payload err:%w", err)
				}
				log.Debug("payload is valid", "repo", repo.FullName, "source", repo.SourceURL)
			}

			fmt.Println(signature.Compute([]byte(cmd.String("secret")), body))
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error("exiting", "err", err)
		os.Exit(1)
	}
}

// readPayload reads payload from the file or stdin if path is "-"
func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
