package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/theme"
	"github.com/nhle/juscheck/internal/tracking"
)

func newAddCmd(flags *globalFlags) *cobra.Command {
	var req tracking.RegisterRequest

	cmd := &cobra.Command{
		Use:   "add [number]",
		Short: "Start tracking a process",
		Long: `Start tracking a process for an email recipient.

Missing values are prompted for interactively.

Examples:
  juscheck add 0001234-56.2024.8.26.0100 --email ana@example.com --notify
  juscheck add`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Number = args[0]
			}
			if req.Number == "" || req.Email == "" {
				if err := promptRegistration(&req); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if req.Notify {
				a.drain()
			}

			if flags.jsonOutput {
				return outputJSON(res)
			}
			p := res.Process
			fmt.Printf("Tracking %s for %s (id %d, %d movements)\n",
				cnj.Format(p.Number), p.Email, p.ID, p.LastMovementCount)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "recipient email")
	f.StringVar(&req.Label, "label", "", "optional label")
	f.StringVar(&req.Priority, "priority", "", "priority classification")
	f.BoolVar(&req.Notify, "notify", false, "send the welcome message now")
	return cmd
}

func promptRegistration(req *tracking.RegisterRequest) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Número do processo").
				Description("Número CNJ, com ou sem pontuação").
				Placeholder("0000000-00.0000.0.00.0000").
				Value(&req.Number).
				Validate(func(s string) error {
					if !cnj.Valid(s) {
						return errors.New("o número deve ter 20 dígitos")
					}
					return nil
				}),
			huh.NewInput().
				Title("E-mail").
				Value(&req.Email).
				Validate(validateRequired("E-mail")),
			huh.NewInput().
				Title("Rótulo").
				Description("Opcional").
				Value(&req.Label),
			huh.NewSelect[string]().
				Title("Prioridade").
				Options(
					huh.NewOption(model.DefaultPriority, ""),
					huh.NewOption("Baixa", "Baixa"),
					huh.NewOption("Média", "Média"),
					huh.NewOption("Alta", "Alta"),
					huh.NewOption("Urgente", "Urgente"),
				).
				Value(&req.Priority),
			huh.NewConfirm().
				Title("Enviar e-mail de confirmação agora?").
				Value(&req.Notify),
		),
	).Run()
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s é obrigatório", field)
		}
		return nil
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			processes, err := a.service.List(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return outputJSON(processes)
			}
			if len(processes) == 0 {
				fmt.Println(theme.HelpStyle.Render("No tracked processes."))
				return nil
			}
			fmt.Println(processTable(processes, a.composer))
			return nil
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show recorded movements and notifications of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return codeError(3, "invalid id %q", args[0])
			}

			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.service.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			movements, err := a.service.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			events, err := a.service.Notifications(cmd.Context(), id)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return outputJSON(map[string]any{
					"process":       p,
					"movements":     movements,
					"notifications": events,
				})
			}

			fmt.Println(theme.HeaderStyle.Render(cnj.Format(p.Number) + " · " + p.Email))
			fmt.Println(movementTable(movements, a.composer))
			fmt.Println(notificationTable(events, a.composer))
			return nil
		},
	}
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Stop tracking processes and delete their history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return codeError(3, "invalid id %q", arg)
				}
				ids = append(ids, id)
			}

			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.service.Remove(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return outputJSON(map[string]int64{"removed": n})
			}
			fmt.Printf("Removed %d of %d processes\n", n, len(ids))
			return nil
		},
	}
}

func newLookupCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <number>",
		Short: "Fetch a process from the registry without tracking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return outputJSON(res)
			}

			fmt.Println(theme.HeaderStyle.Render(res.Formatted))
			snap := res.Snapshot
			if res.Court != nil {
				fmt.Printf("Tribunal:  %s (%s)\n", res.Court.Name, res.Court.Initials)
			}
			if snap.Class != "" {
				fmt.Printf("Classe:    %s\n", snap.Class)
			}
			if snap.JudgingBody != "" {
				fmt.Printf("Órgão:     %s\n", snap.JudgingBody)
			}
			if snap.FiledAt != nil {
				fmt.Printf("Ajuizado:  %s\n", a.composer.FormatTime(*snap.FiledAt))
			}
			fmt.Printf("Consulta:  %s\n", res.Link.URL)
			fmt.Println(snapshotTable(snap, a.composer))
			return nil
		},
	}
}
