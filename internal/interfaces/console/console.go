package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Console is an interactive patient simulator. The operator types
// messages as if they were a patient and sees exactly what the channels
// would reply, which is the quickest way to try template changes.
type Console struct {
	triage   *usecase.TriageUseCase
	logger   *zap.Logger
	senderID string
	name     string
	clinic   string
}

// Config console configuration.
type Config struct {
	ClinicName string
	// PatientName pre-sets the simulated patient's name, as if the
	// connector had sent one. Empty simulates an anonymous first contact.
	PatientName string
}

// New creates a console session against a fresh simulated patient.
func New(uc *usecase.TriageUseCase, logger *zap.Logger, cfg Config) *Console {
	clinic := cfg.ClinicName
	if clinic == "" {
		clinic = "OdontoFlow"
	}

	return &Console{
		triage:   uc,
		logger:   logger,
		senderID: newSenderID(),
		name:     cfg.PatientName,
		clinic:   clinic,
	}
}

func newSenderID() string {
	return fmt.Sprintf("console:%d", time.Now().UnixNano())
}

// Run starts the console loop. It returns on /exit or EOF.
func (c *Console) Run(ctx context.Context) error {
	c.printBanner()

	scanner := bufio.NewScanner(os.Stdin)
	// Allow long input lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Printf("%s%s> %s", colorGreen, c.promptLabel(), colorReset)

		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		// Handle built-in commands
		if handled, shouldExit := c.handleCommand(input); handled {
			if shouldExit {
				return nil
			}
			continue
		}

		// Everything else goes through triage, like a real message
		if err := c.processMessage(ctx, input); err != nil {
			fmt.Printf("%sError: %v%s\n", colorYellow, err, colorReset)
			c.logger.Error("Console triage failed", zap.Error(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	fmt.Println("\nGoodbye!")
	return nil
}

func (c *Console) promptLabel() string {
	if c.name != "" {
		return c.name
	}
	return "paciente"
}

// handleCommand processes built-in commands.
// Returns (handled, shouldExit).
func (c *Console) handleCommand(input string) (bool, bool) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false, false
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/exit", "/quit", "/q":
		fmt.Println("Goodbye!")
		return true, true

	case "/new":
		c.senderID = newSenderID()
		c.name = ""
		fmt.Printf("%s✓ New simulated patient, next message is a first contact%s\n", colorCyan, colorReset)
		return true, false

	case "/name":
		if len(parts) > 1 {
			c.name = strings.Join(parts[1:], " ")
			fmt.Printf("%s✓ Patient now introduces themselves as: %s%s\n", colorCyan, c.name, colorReset)
		} else {
			fmt.Printf("%sCurrent patient name: %s%s\n", colorCyan, c.promptLabel(), colorReset)
		}
		return true, false

	case "/status":
		fmt.Printf("%s── Status ──%s\n", colorCyan, colorReset)
		fmt.Printf("  Sender:  %s\n", c.senderID)
		fmt.Printf("  Name:    %s\n", c.promptLabel())
		fmt.Printf("  Clinic:  %s\n", c.clinic)
		return true, false

	case "/help":
		c.printHelp()
		return true, false

	default:
		return false, false
	}
}

// processMessage sends the input through the triage pipeline.
func (c *Console) processMessage(ctx context.Context, input string) error {
	startTime := time.Now()
	result, err := c.triage.Execute(ctx, usecase.TriageCommand{
		SenderID:   c.senderID,
		SenderName: c.name,
		Message:    input,
		Channel:    entity.ChannelConsole,
	})
	elapsed := time.Since(startTime)

	if err != nil {
		return err
	}

	// Print the reply the patient would receive
	fmt.Printf("\n%s%s🦷 %s%s\n", colorBold, colorCyan, c.clinic, colorReset)
	fmt.Println(result.Reply)
	fmt.Printf("%s(intent: %s %.1f | status: %s | next: %s) (%s)%s\n\n",
		colorGray,
		result.Intent.Label(),
		result.Intent.Confidence(),
		result.PatientStatus,
		result.NextAction,
		elapsed.Round(time.Millisecond),
		colorReset,
	)

	return nil
}

// printBanner displays the welcome message.
func (c *Console) printBanner() {
	fmt.Printf("\n%s%s╔══════════════════════════════════╗%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%s║       %s Console        ║%s\n", colorBold, colorCyan, "OdontoFlow", colorReset)
	fmt.Printf("%s%s╚══════════════════════════════════╝%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%sClinic: %s | Type /help for commands%s\n\n", colorGray, c.clinic, colorReset)
}

// printHelp displays available commands.
func (c *Console) printHelp() {
	fmt.Printf("\n%s── Commands ──%s\n", colorCyan, colorReset)
	fmt.Println("  /new          Simulate a brand-new patient")
	fmt.Println("  /name [name]  Show or set the simulated patient's name")
	fmt.Println("  /status       Show current session status")
	fmt.Println("  /help         Show this help")
	fmt.Println("  /exit         Exit console")
	fmt.Println()
}
