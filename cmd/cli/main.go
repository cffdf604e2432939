package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dodouchiha/turni/internal/config"
	"github.com/dodouchiha/turni/pkg/clients/githubclient"
	"github.com/dodouchiha/turni/pkg/clients/sheetsclient"
	"github.com/dodouchiha/turni/pkg/core/holiday"
	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/core/schedule"
	"github.com/dodouchiha/turni/pkg/core/services"
	"github.com/dodouchiha/turni/pkg/export"
	"github.com/dodouchiha/turni/pkg/store"
	"github.com/dodouchiha/turni/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg     *config.Config
	session *services.Session
	logger  *zap.Logger
	ctx     context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "turni",
		Short: "Turni CLI - Manage doctors' monthly shift planning",
		Long:  `A CLI tool for managing the doctor roster and monthly absence planning, persisted to a GitHub repository.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.session != nil {
				app.session.Close()
			}
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "prod", "Environment name used for log files")

	rootCmd.AddCommand(listDoctorsCmd())
	rootCmd.AddCommand(addDoctorCmd())
	rootCmd.AddCommand(removeDoctorCmd())
	rootCmd.AddCommand(selectDoctorsCmd())
	rootCmd.AddCommand(setMonthCmd())
	rootCmd.AddCommand(showGridCmd())
	rootCmd.AddCommand(setStatusCmd())
	rootCmd.AddCommand(saveMonthCmd())
	rootCmd.AddCommand(loadMonthCmd())
	rootCmd.AddCommand(exportExcelCmd())
	rootCmd.AddCommand(publishGridCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients and the session
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Missing credentials halt startup entirely.
	token, err := config.GitHubToken()
	if err != nil {
		return err
	}

	statuses, err := model.NewStatusSet(app.cfg.StatusLabels())
	if err != nil {
		return fmt.Errorf("invalid absence types: %w", err)
	}

	clinicRules, err := buildClinicRules(app.cfg)
	if err != nil {
		return err
	}

	docs := githubclient.NewClient(app.ctx, token, app.cfg.GitHubOwner, app.cfg.GitHubRepo, app.cfg.GitHubBranch)
	backup := store.NewBackupCache(app.cfg.BackupDir, app.logger)

	app.logger.Info("Loading roster",
		zap.String("repo", app.cfg.GitHubOwner+"/"+app.cfg.GitHubRepo),
		zap.String("path", app.cfg.RosterPath))

	app.session, err = services.NewSession(app.ctx, docs, app.cfg.Retry.Policy(), backup, app.logger, services.Options{
		RosterPath:      app.cfg.RosterPath,
		MonthPathFormat: app.cfg.MonthPathFormat,
		Country:         app.cfg.HolidayCountry,
		Statuses:        statuses,
		Lookup:          holiday.ForCountry,
		ClinicRules:     clinicRules,
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if app.session.Degraded() {
		fmt.Println("⚠️  Remote store unreachable - working from the local backup. Saves may conflict.")
	}

	return nil
}

// buildClinicRules parses the configured recurrences, defaulting to the
// historical Monday/Wednesday/Friday clinic.
func buildClinicRules(cfg *config.Config) ([]*schedule.ClinicRule, error) {
	if len(cfg.ClinicRules) == 0 {
		return []*schedule.ClinicRule{schedule.DefaultClinicRule()}, nil
	}

	rules := make([]*schedule.ClinicRule, 0, len(cfg.ClinicRules))
	for i, rc := range cfg.ClinicRules {
		rule, err := schedule.NewClinicRule(rc.RRule, rc.Label)
		if err != nil {
			return nil, fmt.Errorf("clinicRules[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Command definitions

func listDoctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listDoctors",
		Short: "List all doctors in the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := app.session.Roster().Names()
			active := make(map[string]bool)
			for _, name := range app.session.Active() {
				active[name] = true
			}

			fmt.Printf("\nFound %d doctors:\n\n", len(names))
			for _, name := range names {
				marker := " "
				if active[name] {
					marker = "✓"
				}
				fmt.Printf("  [%s] %s\n", marker, name)
			}
			if len(names) == 0 {
				fmt.Println("  (roster is empty)")
			}
			fmt.Println()
			return nil
		},
	}
}

func addDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addDoctor <name>",
		Short: "Add a doctor to the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.session.OnAddDoctor(app.ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Doctor added. Roster is now:\n")
			for _, name := range app.session.Roster().Names() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println()
			return nil
		},
	}
}

func removeDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "removeDoctor <name>",
		Short: "Remove a doctor from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.session.OnRemoveDoctor(app.ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Doctor removed. %d doctors remain.\n\n", len(app.session.Roster().Names()))
			return nil
		},
	}
}

func selectDoctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selectDoctors <name>...",
		Short: "Choose which doctors appear in the planning grid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.session.OnSelectDoctors(args); err != nil {
				return err
			}

			fmt.Printf("\n✓ Planning for: %s\n\n", strings.Join(app.session.Active(), ", "))
			return nil
		},
	}
}

func setMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setMonth <year> <month>",
		Short: "Switch the planning period (discards unsaved edits)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year must be a number: %w", err)
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("month must be a number: %w", err)
			}

			if _, err := app.session.OnMonthChange(year, month); err != nil {
				return err
			}

			fmt.Printf("\n✓ Planning period set to %04d-%02d\n\n", year, month)
			return nil
		},
	}
}

func showGridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "showGrid",
		Short: "Print the planning grid for the selected period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid := app.session.Grid()
			if grid == nil {
				fmt.Println("\nNo doctors selected - add or select doctors first.")
				return nil
			}

			printGrid(grid)
			return nil
		},
	}
}

func setStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setStatus <day> <doctor> <status>",
		Short: "Record a doctor's status for one day of the selected month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("day must be a number: %w", err)
			}

			if _, err := app.session.OnCellEdit(day, args[1], args[2]); err != nil {
				return err
			}

			fmt.Printf("\n✓ %s on day %d: %s\n", args[1], day, args[2])
			fmt.Println("  (run saveMonth to persist edits)")
			return nil
		},
	}
}

func saveMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saveMonth",
		Short: "Persist this month's non-default statuses to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.SaveMonth(app.ctx); err != nil {
				return err
			}

			fmt.Printf("\n✓ Month %04d-%02d saved.\n\n", app.session.Year(), int(app.session.Month()))
			return nil
		},
	}
}

func loadMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loadMonth",
		Short: "Load this month's saved statuses onto a fresh grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.LoadMonth(app.ctx); err != nil {
				return err
			}

			fmt.Printf("\n✓ Month %04d-%02d loaded.\n\n", app.session.Year(), int(app.session.Month()))
			return nil
		},
	}
}

func exportExcelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exportExcel [file]",
		Short: "Export the planning grid to an xlsx file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid := app.session.Grid()
			if grid == nil {
				return fmt.Errorf("no grid to export: select at least one doctor first")
			}

			path := export.FileName(grid.Year, grid.Month)
			if len(args) > 0 {
				path = args[0]
			}

			if err := export.WriteFile(grid, path); err != nil {
				return err
			}

			fmt.Printf("\n✓ Grid exported to %s\n\n", path)
			return nil
		},
	}
}

func publishGridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publishGrid",
		Short: "Publish the planning grid to the configured Google Sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid := app.session.Grid()
			if grid == nil {
				return fmt.Errorf("no grid to publish: select at least one doctor first")
			}
			if app.cfg.SpreadsheetID == "" {
				return fmt.Errorf("spreadsheetID is not configured")
			}

			oauthCfg, err := config.LoadOAuthClient()
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			client, err := sheetsclient.NewClient(app.ctx, oauthCfg)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			tab := app.cfg.SpreadsheetTab
			if tab == "" {
				tab = export.SheetName(grid.Year, grid.Month)
			}

			if err := client.PublishGrid(app.cfg.SpreadsheetID, tab, grid); err != nil {
				return err
			}

			fmt.Printf("\n✓ Grid published to tab %q\n\n", tab)
			return nil
		},
	}
}

// printGrid renders the grid as a fixed-width table.
func printGrid(grid *schedule.Grid) {
	fmt.Printf("\nPlanning for %04d-%02d (%d doctors)\n\n", grid.Year, int(grid.Month), len(grid.Doctors))

	fmt.Printf("%-12s %-10s %-22s %-14s", "Data", "Giorno", "Festività", "Ambulatorio")
	for _, doctor := range grid.Doctors {
		fmt.Printf(" %-20s", doctor)
	}
	fmt.Println()

	for _, row := range grid.Rows {
		fmt.Printf("%-12s %-10s %-22s %-14s",
			row.Date.Format("02/01/2006"),
			row.Weekday,
			row.HolidayName,
			row.Clinic)
		for _, doctor := range grid.Doctors {
			fmt.Printf(" %-20s", row.Statuses[doctor])
		}
		fmt.Println()
	}
	fmt.Println()
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without
reloading the roster. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\n🚀 Starting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("👋 Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags and args
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Execute the command's RunE directly, bypassing the full
				// Execute() flow so PersistentPreRunE does not reload the
				// session.
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("❌ Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("❌ Error: %v\n\n", err)
					continue
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("❌ Error: %v\n\n", err)
					}
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-40s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                                     Show this help message")
	fmt.Println("  exit, quit                               Exit the interactive session")
}
