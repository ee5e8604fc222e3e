package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/bot"
)

const (
	PromptOther = "✏️ 輸入其他內容"
	PromptQuit  = "exit"

	consoleUserID = "console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("user", "u", consoleUserID, "user id for the session")
}

// stdoutNotifier prints pushed messages, the way a chat client would show them.
type stdoutNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *stdoutNotifier) Push(_ context.Context, _ string, messages ...bot.Reply) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range messages {
		printReply(n.out, m)
	}
	return nil
}

func printReply(out io.Writer, r bot.Reply) {
	fmt.Fprintf(out, "\n%s\n", r.Text)
	if len(r.QuickReplies) == 0 {
		return
	}
	labels := make([]string, 0, len(r.QuickReplies))
	for _, q := range r.QuickReplies {
		labels = append(labels, "["+q.Label+"]")
	}
	fmt.Fprintf(out, "%s\n", strings.Join(labels, " "))
}

func chat(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	application, err := buildApplication(ctx, config, &stdoutNotifier{out: os.Stdout}, logger)
	if err != nil {
		logger.Fatal("building the bot", zap.Error(err))
	}
	defer application.Close()

	userID := cmd.Flag("user").Value.String()
	fmt.Printf("%s console, type %q to quit\n", app, PromptQuit)

	var pending []string
	for {
		text, err := nextInput(pending)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			logger.Fatal("reading input", zap.Error(err))
		}
		if strings.TrimSpace(text) == PromptQuit {
			break
		}

		reply := application.bot.Handle(ctx, bot.Message{UserID: userID, Text: text})
		printReply(os.Stdout, reply)

		// Results are pushed asynchronously; wait so they are printed before the next prompt.
		application.bot.Wait()

		pending = pending[:0]
		for _, q := range reply.QuickReplies {
			pending = append(pending, q.Text)
		}
	}

	logger.Info("exiting", zap.String("reason", "console closed"))
}

// nextInput offers the quick replies of the last answer, or a free text prompt.
func nextInput(quick []string) (string, error) {
	if len(quick) > 0 {
		selectPrompt := promptui.Select{
			Label: "Choose a reply",
			Items: append(append([]string{}, quick...), PromptOther),
		}
		_, selected, err := selectPrompt.Run()
		if err != nil {
			return "", err
		}
		if selected != PromptOther {
			return selected, nil
		}
	}

	textPrompt := promptui.Prompt{
		Label: "你",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("message is empty")
			}
			return nil
		},
	}
	return textPrompt.Run()
}
