package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odontoflow/odontoflow/gateway/internal/application"
	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/config"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/logger"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/templates"
)

const (
	cliVersion = "0.1.0"
	cliName    = "odontoflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   cliName,
		Short: "OdontoFlow — dental clinic triage gateway",
		Long:  "Operations CLI for the OdontoFlow gateway: run triage locally, inspect patients, manage the agenda and validate reply templates.",
	}

	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newPatientsCmd())
	rootCmd.AddCommand(newAgendaCmd())
	rootCmd.AddCommand(newTemplatesCmd())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", cliName, cliVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newCLIApp builds the lightweight app wiring with a quiet logger.
// Info-level chatter goes nowhere; real failures still reach stderr.
func newCLIApp() (*application.App, error) {
	log, err := logger.NewLogger(logger.Config{
		Level:      "error",
		Format:     "console",
		OutputPath: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return application.NewAppCLI(cfg, log)
}

func closeApp(app *application.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.Stop(ctx)
}

// ─── triage ───

func newTriageCmd() *cobra.Command {
	var from, name, channel string

	cmd := &cobra.Command{
		Use:   "triage [message]",
		Short: "Run one message through the triage pipeline",
		Long:  "Classifies the message, resolves the patient and prints the reply, exactly as the HTTP endpoint would.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			result, err := app.TriageUseCase().Execute(cmd.Context(), usecase.TriageCommand{
				SenderID:   from,
				SenderName: name,
				Message:    strings.Join(args, " "),
				Channel:    entity.Channel(channel),
			})
			if err != nil {
				return err
			}

			patientLabel := result.Patient.ID()
			if result.Patient.HasName() {
				patientLabel = fmt.Sprintf("%s (%s)", result.Patient.Name(), result.Patient.ID())
			}

			fmt.Printf("Intent:   %s (%.1f)\n", result.Intent.Label(), result.Intent.Confidence())
			fmt.Printf("Patient:  %s — %s\n", patientLabel, result.PatientStatus)
			fmt.Printf("Next:     %s\n", result.NextAction)
			fmt.Printf("\n%s\n", result.Reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "sender id (phone number, tg:<id>, ...)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "sender display name")
	cmd.Flags().StringVarP(&channel, "channel", "c", "cli", "channel recorded in the interaction log")
	cmd.MarkFlagRequired("from")

	return cmd
}

// ─── patients ───

func newPatientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Inspect patient records",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patients by most recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx := cmd.Context()
			patients, err := app.Patients().FindAll(ctx, limit, offset)
			if err != nil {
				return err
			}
			total, err := app.Patients().Count(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-22s  %-20s  %-17s  %s\n", "ID", "NAME", "LAST MESSAGE", "SINCE")
			for _, p := range patients {
				name := p.Name()
				if name == "" {
					name = "-"
				}
				fmt.Printf("%-22s  %-20s  %-17s  %s\n",
					p.ID(),
					name,
					p.LastMessageAt().Local().Format("2006-01-02 15:04"),
					p.CreatedAt().Local().Format("2006-01-02"),
				)
			}
			fmt.Printf("\n%d of %d patients\n", len(patients), total)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	listCmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Show one patient and their recent history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx := cmd.Context()
			patient, err := app.Patients().FindByID(ctx, args[0])
			if err != nil {
				return err
			}

			history, err := app.Interactions().FindByPatientID(ctx, patient.ID(), 20, 0)
			if err != nil {
				return err
			}
			total, err := app.Interactions().CountByPatient(ctx, patient.ID())
			if err != nil {
				return err
			}

			name := patient.Name()
			if name == "" {
				name = "-"
			}
			fmt.Printf("ID:            %s\n", patient.ID())
			fmt.Printf("Name:          %s\n", name)
			fmt.Printf("First contact: %s\n", patient.CreatedAt().Local().Format("2006-01-02 15:04"))
			fmt.Printf("Last message:  %s\n", patient.LastMessageAt().Local().Format("2006-01-02 15:04"))
			fmt.Printf("Interactions:  %d\n", total)

			if len(history) > 0 {
				fmt.Printf("\nRecent history (newest first):\n")
				for _, it := range history {
					fmt.Printf("  %s  [%s/%s]\n", it.CreatedAt().Local().Format("2006-01-02 15:04"), it.Channel(), it.Intent().Label())
					fmt.Printf("    > %s\n", it.MessageText())
					fmt.Printf("    < %s\n", it.ReplyText())
				}
			}
			return nil
		},
	})

	return cmd
}

// ─── agenda ───

func newAgendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Inspect and manage the consultation agenda",
	}

	var date string
	slotsCmd := &cobra.Command{
		Use:   "slots",
		Short: "List free consultation slots for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			loc := app.AgendaUseCase().Location()
			day := time.Now().In(loc)
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
			}

			slots, err := app.AgendaUseCase().FreeSlots(cmd.Context(), day)
			if err != nil {
				return err
			}

			fmt.Printf("Free slots on %s:\n", day.Format("2006-01-02"))
			if len(slots) == 0 {
				fmt.Println("  (none)")
				return nil
			}
			for _, s := range slots {
				fmt.Printf("  %s – %s\n", s.Start.In(loc).Format("15:04"), s.End.In(loc).Format("15:04"))
			}
			return nil
		},
	}
	slotsCmd.Flags().StringVarP(&date, "date", "d", "", "day to list (YYYY-MM-DD, default today)")
	cmd.AddCommand(slotsCmd)

	var from, at, notes string
	bookCmd := &cobra.Command{
		Use:   "book",
		Short: "Book a consultation slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			loc := app.AgendaUseCase().Location()
			startsAt, err := parseSlotTime(at, loc)
			if err != nil {
				return err
			}

			appt, err := app.AgendaUseCase().Book(cmd.Context(), from, startsAt, notes)
			if err != nil {
				return err
			}

			fmt.Printf("Booked %s\n", appt.ID())
			fmt.Printf("  %s – %s for %s\n",
				appt.StartsAt().In(loc).Format("2006-01-02 15:04"),
				appt.EndsAt().In(loc).Format("15:04"),
				appt.PatientID(),
			)
			return nil
		},
	}
	bookCmd.Flags().StringVarP(&from, "from", "f", "", "patient sender id")
	bookCmd.Flags().StringVarP(&at, "at", "t", "", `slot start ("2006-01-02 15:04" clinic time, or RFC3339)`)
	bookCmd.Flags().StringVar(&notes, "notes", "", "free-form note for the attendants")
	bookCmd.MarkFlagRequired("from")
	bookCmd.MarkFlagRequired("at")
	cmd.AddCommand(bookCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel [appointment-id]",
		Short: "Cancel a booked appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			appt, err := app.AgendaUseCase().Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			loc := app.AgendaUseCase().Location()
			fmt.Printf("Cancelled %s (%s, %s)\n",
				appt.ID(),
				appt.PatientID(),
				appt.StartsAt().In(loc).Format("2006-01-02 15:04"),
			)
			return nil
		},
	})

	return cmd
}

// parseSlotTime accepts the receptionist-friendly local format first,
// then RFC3339 for scripts.
func parseSlotTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --at %q, want \"2006-01-02 15:04\" or RFC3339", raw)
}

// ─── templates ───

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage reply templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the reply template file",
		Long:  "Parses and validates the template file the gateway would load, without touching the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLogger(logger.Config{
				Level:      "error",
				Format:     "console",
				OutputPath: "stderr",
			})
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			store, err := templates.NewStore(cfg.Templates.Path, false, log)
			if err != nil {
				fmt.Printf("\033[91m✗\033[0m %v\n", err)
				os.Exit(1)
			}

			set := store.Templates()
			fmt.Printf("\033[92m✓\033[0m %s\n", store.Path())
			fmt.Printf("  %d intents × %d statuses, name fallback %q\n",
				len(set.Replies), len(set.Prefix), set.NameFallback)
			return nil
		},
	})

	return cmd
}
