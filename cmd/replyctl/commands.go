package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"email-writer-backend/internal/config"
	"email-writer-backend/internal/models"
	"email-writer-backend/internal/services"
	"email-writer-backend/pkg/logging"
)

type emailFlags struct {
	tone string
	file string
}

func (f *emailFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tone, "tone", "t", "", "reply tone (default \"professional\")")
	cmd.Flags().StringVarP(&f.file, "file", "f", "-", "file holding the original email, - for stdin")
}

func (f *emailFlags) request(stdin io.Reader) (models.ReplyRequest, error) {
	var (
		data []byte
		err  error
	)
	if f.file == "" || f.file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(f.file)
	}
	if err != nil {
		return models.ReplyRequest{}, fmt.Errorf("read email: %w", err)
	}
	return models.ReplyRequest{EmailContent: string(data), Tone: f.tone}, nil
}

func promptCmd() *cobra.Command {
	var flags emailFlags
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that would be sent, without calling the provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.BuildReplyPrompt(req))
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		flags  emailFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a reply for an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(resolveConfigPath())
			if err != nil {
				return err
			}
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "text")
			provider, closeProvider, err := services.NewProvider(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProvider()

			svc := services.NewReplyService(provider, nil, logger)
			return runGenerate(ctx, svc, req, asJSON, cmd.OutOrStdout())
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the typed JSON result instead of plain text")
	return cmd
}

func runGenerate(ctx context.Context, svc *services.ReplyService, req models.ReplyRequest, asJSON bool, out io.Writer) error {
	if !asJSON {
		reply, err := svc.GenerateReply(ctx, req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, reply)
		return err
	}

	resp, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(resolveConfigPath())
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(&redacted)
		},
	}
}
