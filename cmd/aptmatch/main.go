package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"aptmatch/internal/app"
	"aptmatch/internal/approvals"
	"aptmatch/internal/config"
	"aptmatch/internal/dataset"
	"aptmatch/internal/db"
	"aptmatch/internal/domain"
	"aptmatch/internal/logger"
	"aptmatch/internal/migrate"
	"aptmatch/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "aptmatch",
	Short: "APT-Match CLI",
	Long: `APT-Match ranks candidates against projects with a weighted fit score
(skills 50%, availability 30%, seniority 20%), explains every score in
plain language, imports projects from CSV, and tracks approve/reject
decisions per candidate/project pair.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("APTMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(candidatesCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(rejectCmd())
	rootCmd.AddCommand(approvalsCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(remoteCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in candidate and project dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := dataset.Seed(ctx, a.DB); err != nil {
					return err
				}
				fmt.Println("dataset seeded")
				return nil
			})
		},
	}
}

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import projects from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				projects, err := a.ImportProjects(ctx, f)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d projects\n", len(projects))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the CSV file")
	return cmd
}

func candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Candidates(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Tier", "Ranking", "Availability", "Skills"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Tier, c.Ranking, c.Availability, strings.Join(c.Skills, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Projects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Timeline", "Required Skills"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, p.Status, p.Priority, p.Timeline, strings.Join(p.RequiredSkills, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func matchCmd() *cobra.Command {
	var projectID string
	var minFit float64
	var unfiltered bool
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank candidates against projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				threshold := -1.0
				if unfiltered {
					threshold = 0
				} else if cmd.Flags().Changed("min-fit") {
					threshold = minFit
				}
				if projectID != "" {
					matches, err := a.MatchForProject(ctx, projectID, threshold)
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(matches)
					}
					fmt.Printf("%s (%s)\n", matches.Project.Title, matches.Project.ID)
					renderMatchTable(matches.Candidates)
					return nil
				}
				all, err := a.Match(ctx, threshold)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(all)
				}
				ids := make([]string, 0, len(all))
				for id := range all {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					m := all[id]
					fmt.Printf("%s (%s)\n", m.Project.Title, m.Project.ID)
					renderMatchTable(m.Candidates)
					fmt.Println()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "rank for a single project id")
	cmd.Flags().Float64Var(&minFit, "min-fit", 0, "minimum fit score (default from config)")
	cmd.Flags().BoolVar(&unfiltered, "unfiltered", false, "include every candidate regardless of fit")
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <candidate-id>",
		Short: "Score one candidate against every project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				results, err := a.AnalyzeCandidate(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(results)
				}
				renderMatchTable(results)
				return nil
			})
		},
	}
	return cmd
}

func approveCmd() *cobra.Command {
	return decisionCmd("approve", "Approve a candidate for a project")
}

func rejectCmd() *cobra.Command {
	return decisionCmd("reject", "Reject a candidate for a project")
}

func decisionCmd(verb, short string) *cobra.Command {
	var candidateID, projectID string
	cmd := &cobra.Command{
		Use:   verb,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if candidateID == "" || projectID == "" {
				return fmt.Errorf("--candidate and --project required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				decide := a.Approve
				if verb == "reject" {
					decide = a.Reject
				}
				rec, err := decide(ctx, candidateID, projectID)
				if errors.Is(err, approvals.ErrAlreadyDecided) {
					fmt.Printf("pair already decided: %s (%s)\n", rec.Status, rec.DecidedAt)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s -> %s (fit %.0f%%)\n", rec.Status, rec.CandidateID, rec.ProjectID, rec.FitScore*100)
				fmt.Println(rec.Explanation)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func approvalsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "approvals", Short: "Manage approval decisions"}
	cmd.AddCommand(approvalsListCmd())
	cmd.AddCommand(approvalsRemoveCmd())
	return cmd
}

func approvalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				recs, err := a.Approvals.Approvals(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(recs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Candidate", "Project", "Status", "Fit", "Decided At"})
				for _, r := range recs {
					tw.AppendRow(table.Row{r.CandidateID, r.ProjectID, r.Status, fmt.Sprintf("%.0f%%", r.FitScore*100), r.DecidedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func approvalsRemoveCmd() *cobra.Command {
	var candidateID, projectID string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the decision for a pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if candidateID == "" || projectID == "" {
				return fmt.Errorf("--candidate and --project required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Approvals.Remove(ctx, candidateID, projectID); err != nil {
					return err
				}
				fmt.Println("decision removed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask a free-text question about candidates and projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, reply, err := a.Chat(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Println(reply)
				return nil
			})
		},
	}
}

func remoteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "remote", Short: "Remote scoring backend"}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Probe the remote scoring backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				status := a.RemoteCheck(ctx)
				if viper.GetBool("json") {
					return printJSON(status)
				}
				switch {
				case !status.Configured:
					fmt.Println(status.Detail)
				case status.Reachable:
					fmt.Println("remote scoring backend reachable")
				default:
					fmt.Println("remote scoring backend unreachable:", status.Detail)
				}
				return nil
			})
		},
	})
	return cmd
}

func logCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the audit event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				evts, err := a.Events.List(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Candidate", "Project"})
				for _, e := range evts {
					tw.AppendRow(table.Row{e.TS, e.Type, e.CandidateID, e.ProjectID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage workspace configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default aptmatch.yml to the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if basePath != "" {
				cfg.Server.BasePath = basePath
			}
			log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
			if err != nil {
				return err
			}
			defer log.Sync()

			conn, err := db.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			a := app.New(conn, cfg, log)
			handler, err := server.New(server.Config{App: a, BasePath: cfg.Server.BasePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info("serving matching API",
				zap.String("addr", cfg.Server.Addr),
				zap.String("base_path", cfg.Server.BasePath))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides config)")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(workspace)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()
	return fn(ctx, app.New(conn, cfg, log))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderMatchTable(results []domain.MatchResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Candidate", "Project", "Fit", "Skills", "Availability", "Seniority", "Explanation"})
	for _, r := range results {
		tw.AppendRow(table.Row{
			r.CandidateID, r.ProjectID,
			fmt.Sprintf("%.0f%%", r.FitScore*100),
			fmt.Sprintf("%.0f%%", r.SkillMatch*100),
			fmt.Sprintf("%.0f%%", r.AvailabilityMatch*100),
			fmt.Sprintf("%.0f%%", r.SeniorityMatch*100),
			r.Explanation,
		})
	}
	tw.Render()
}
