package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/dependency"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/shared/cmdutils"
)

var (
	chatPrompt        string
	chatOutputOnly    bool
	chatRaw           bool
	chatMaxIterations int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the model (interactive, or one prompt with -p)",
	RunE:  runChat,
}

func init() {
	addChatFlags(chatCmd)
}

func addChatFlags(c *cobra.Command) {
	c.Flags().StringVarP(&chatPrompt, "prompt", "p", "", "answer a single prompt and exit")
	c.Flags().BoolVar(&chatOutputOnly, "output-only", false, "print only the answer")
	c.Flags().BoolVar(&chatRaw, "raw", false, "do not render markdown")
	c.Flags().IntVar(&chatMaxIterations, "max-iterations", 0, "override orchestrator.max_iterations")
}

// chatSession is the part of agent.Session the REPL drives.
type chatSession interface {
	ProcessMessage(ctx context.Context, text string) (string, error)
	ClearHistory()
	Usage() schema.Usage
	Catalog() []schema.ToolDescriptor
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := dependency.New(cfg, version)
	if err != nil {
		return err
	}
	sess := container.Session()
	defer sess.Cleanup()

	printer := cmdutils.NewPrinter(os.Stdout, os.Stderr, cmdutils.PrinterOptions{
		Raw:        chatRaw,
		OutputOnly: chatOutputOnly,
	})
	sess.SetProgressHandler(printer.Progress)

	initCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = sess.Initialize(initCtx)
	stop()
	if err != nil {
		return err
	}
	sess.SetMaxIterations(chatMaxIterations)

	if chatPrompt != "" {
		ctx, stop := turnContext()
		defer stop()
		answer, err := sess.ProcessMessage(ctx, chatPrompt)
		if err != nil {
			return err
		}
		printer.Answer(answer)
		return nil
	}

	printer.Banner(fmt.Sprintf("%d tools. Type 'exit' to quit, 'help' for commands.", len(sess.Catalog())))
	return repl(os.Stdin, sess, printer, turnContext)
}

// turnContext is cancelled by Ctrl-C for the duration of one turn only.
func turnContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

const replHelp = `Commands:
  exit, quit, q    leave
  clear, reset     forget the conversation
  tokens, usage    show model usage
  tools            list available tools`

func repl(in io.Reader, sess chatSession, printer *cmdutils.Printer, newTurn func() (context.Context, context.CancelFunc)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		printer.Info("%s", cmdutils.TitleStyle.Render("You:"))
		if !scanner.Scan() {
			printer.Info("Goodbye!")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			printer.Info("Goodbye!")
			return nil
		case "clear", "reset":
			sess.ClearHistory()
			printer.Info("Conversation cleared.")
			continue
		case "tokens", "usage":
			printer.Usage(sess.Usage())
			continue
		case "tools":
			printer.Catalog(sess.Catalog())
			continue
		case "help", "?":
			printer.Info("%s", replHelp)
			continue
		}

		ctx, stop := newTurn()
		answer, err := sess.ProcessMessage(ctx, line)
		stop()
		switch {
		case errors.Is(err, context.Canceled):
			printer.Info("Cancelled.")
		case err != nil:
			printer.Error(err)
		default:
			printer.Answer(answer)
		}
	}
}
