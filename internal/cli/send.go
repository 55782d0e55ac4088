package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classmarket/tutorchat/internal/chat"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <job-id> [message]",
		Short: "Send a message on a job thread",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSend,
	}
	cmd.Flags().String("to", "", "Recipient user id (default: resolved from the thread or job owner)")
	cmd.Flags().String("file", "", "Read the message body from a file")
	cmd.Flags().Bool("json", false, "Machine-readable output")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	viewerID := app.ViewerID()
	if viewerID == "" {
		return Exitf(ExitCodeFailure, "no viewer configured; run 'tutorchat login' or set auth.user_id")
	}

	jobID := strings.TrimSpace(args[0])
	bodyArg := ""
	if len(args) > 1 {
		bodyArg = args[1]
	}
	filePath, _ := cmd.Flags().GetString("file")
	recipientID, _ := cmd.Flags().GetString("to")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	body, err := resolveSendBody(cmd, bodyArg, filePath)
	if err != nil {
		return err
	}

	store := chat.NewStore(jobID, viewerID, app.Client)
	// Best effort; an empty thread just falls through to the job-owner
	// recipient fallback.
	if _, err := store.Load(ctx); err != nil {
		var fe *chat.FetchError
		if !errors.As(err, &fe) {
			return Exitf(ExitCodeFailure, "load thread: %v", err)
		}
	}

	sender := chat.NewSender(app.Client, app.Client, chat.StaticCredential(app.Config.Auth.Token), store)
	sent, err := sender.Send(ctx, chat.SendRequest{
		JobID:       jobID,
		Body:        body,
		RecipientID: strings.TrimSpace(recipientID),
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyBody):
			return usageError(cmd, "message body is required")
		case errors.Is(err, chat.ErrNoCredential):
			return Exitf(ExitCodeFailure, "no credential configured; set auth.token or TUTORCHAT_AUTH_TOKEN")
		case errors.Is(err, chat.ErrRecipientUnresolved):
			return Exitf(ExitCodeFailure, "could not resolve a recipient; pass --to")
		}
		return Exitf(ExitCodeFailure, "send message: %v", err)
	}

	cacheMessages(ctx, app, []chat.Message{sent})

	if jsonOutput {
		return writeJSON(cmd, sent)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sent.ID)
	return nil
}

func resolveSendBody(cmd *cobra.Command, bodyArg, filePath string) (string, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath != "" && strings.TrimSpace(bodyArg) != "" {
		return "", usageError(cmd, "provide either a message argument or --file, not both")
	}

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", Exitf(ExitCodeFailure, "read file: %v", err)
		}
		return string(data), nil
	case strings.TrimSpace(bodyArg) != "":
		return bodyArg, nil
	}

	data, err := readStdinIfPiped()
	if err != nil {
		return "", Exitf(ExitCodeFailure, "read stdin: %v", err)
	}
	if strings.TrimSpace(data) == "" {
		return "", usageError(cmd, "message body is required")
	}
	return data, nil
}

func readStdinIfPiped() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
