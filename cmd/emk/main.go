package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emmark/internal/app"
	"emmark/internal/config"
	"emmark/internal/db"
	"emmark/internal/domain"
	"emmark/internal/engine"
	"emmark/internal/migrate"
	"emmark/internal/report"
	"emmark/internal/server"
	"emmark/internal/stats"
)

var rootCmd = &cobra.Command{
	Use:   "emk",
	Short: "Emmark event organizer",
	Long: `Emmark tracks event clients and activities on this device.
- Workspace: your .emmark directory holding the local database.
- Clients: guests with branch, phone, and a confirmation flag.
- Activities: tasks with date, cost, owner, category, lifecycle state,
  and an optional inline file attachment (max 5 MB by default).
- Dashboard: confirmation rate, total cost, progress, and groupings,
  recomputed from current data on every run.
- Report: a printable document with the summary and both tables.
Data lives under the same emmark_clients/emmark_activities keys the
browser build used, so exported browser data loads unchanged.`,
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
	viper.SetEnvPrefix("EMMARK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "skip delete confirmation prompts")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
}

func registerCommands() {
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- clients ---

func clientCmd() *cobra.Command {
	c := &cobra.Command{Use: "client", Short: "Manage event clients"}
	c.AddCommand(clientAddCmd())
	c.AddCommand(clientListCmd())
	c.AddCommand(clientUpdateCmd())
	c.AddCommand(clientConfirmCmd())
	c.AddCommand(clientDeleteCmd())
	return c
}

func clientAddCmd() *cobra.Command {
	var client domain.Client
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.AddClient(ctx, client)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&client.Name, "name", "", "client name")
	cmd.Flags().StringVar(&client.Branch, "branch", "", "branch or affiliation")
	cmd.Flags().StringVar(&client.Phone, "phone", "", "contact phone")
	cmd.Flags().BoolVar(&client.IsConfirmed, "confirmed", false, "attendance confirmed")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func clientListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				clients, err := e.Clients(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(clients)
				}
				tw := table.NewWriter()
				tw.AppendHeader(table.Row{"ID", "Nombre", "Sucursal", "Teléfono", "Estado"})
				for _, c := range clients {
					state := "PENDIENTE"
					if c.IsConfirmed {
						state = "CONFIRMADO"
					}
					tw.AppendRow(table.Row{c.ID, c.Name, c.Branch, c.Phone, state})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
}

func clientUpdateCmd() *cobra.Command {
	var id, name, branch, phone string
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				clients, err := e.Clients(ctx)
				if err != nil {
					return err
				}
				var current *domain.Client
				for i := range clients {
					if clients[i].ID == id {
						current = &clients[i]
						break
					}
				}
				if current == nil {
					return fmt.Errorf("client %s not found", id)
				}
				updated := *current
				if cmd.Flags().Changed("name") {
					updated.Name = name
				}
				if cmd.Flags().Changed("branch") {
					updated.Branch = branch
				}
				if cmd.Flags().Changed("phone") {
					updated.Phone = phone
				}
				if cmd.Flags().Changed("confirmed") {
					updated.IsConfirmed = confirmed
				}
				if _, err := e.UpdateClient(ctx, updated); err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "client id")
	cmd.Flags().StringVar(&name, "name", "", "client name")
	cmd.Flags().StringVar(&branch, "branch", "", "branch or affiliation")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().BoolVar(&confirmed, "confirmed", false, "attendance confirmed")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func clientConfirmCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a client's attendance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.ConfirmClient(ctx, args[0], !revoke)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke the confirmation instead")
	return cmd
}

func clientDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmPrompt("¿Estás seguro de eliminar este cliente?") {
				fmt.Println("aborted")
				return nil
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteClient(ctx, args[0])
			})
		},
	}
}

// --- activities ---

func activityCmd() *cobra.Command {
	a := &cobra.Command{Use: "activity", Short: "Manage event activities"}
	a.AddCommand(activityAddCmd())
	a.AddCommand(activityListCmd())
	a.AddCommand(activityUpdateCmd())
	a.AddCommand(activityStatusCmd())
	a.AddCommand(activityAttachCmd())
	a.AddCommand(activityDownloadCmd())
	a.AddCommand(activityDeleteCmd())
	return a
}

func activityAddCmd() *cobra.Command {
	var opts engine.ActivityCreateOptions
	var actType, actStatus string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actType != "" {
				t, err := domain.ParseActivityType(actType)
				if err != nil {
					return err
				}
				opts.Type = t
			}
			if actStatus != "" {
				st, err := domain.ParseActivityStatus(actStatus)
				if err != nil {
					return err
				}
				opts.Status = st
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AddActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "activity name")
	cmd.Flags().StringVar(&opts.Date, "date", "", "calendar date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&opts.Cost, "cost", 0, "cost amount")
	cmd.Flags().StringVar(&opts.InCharge, "in-charge", "", "responsible party")
	cmd.Flags().StringVar(&actType, "type", "", "category (Logística, Entretenimiento, Catering, Marketing, Otro)")
	cmd.Flags().StringVar(&actStatus, "status", "", "state (Pendiente, En Proceso, Finalizada)")
	cmd.Flags().StringVar(&opts.AttachmentPath, "attach", "", "file to attach (max 5 MB)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func activityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				activities, err := e.Activities(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(activities)
				}
				tw := table.NewWriter()
				tw.AppendHeader(table.Row{"ID", "Actividad", "Fecha", "Encargado", "Tipo", "Costo", "Estado", "Adjunto"})
				for _, a := range activities {
					attach := ""
					if a.Attachment != nil {
						attach = a.Attachment.Name
					}
					tw.AppendRow(table.Row{a.ID, a.Name, a.Date, a.InCharge, string(a.Type), a.Cost, string(a.Status), attach})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
}

func activityUpdateCmd() *cobra.Command {
	var id, name, date, inCharge, actType, actStatus string
	var cost float64
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				activities, err := e.Activities(ctx)
				if err != nil {
					return err
				}
				var current *domain.Activity
				for i := range activities {
					if activities[i].ID == id {
						current = &activities[i]
						break
					}
				}
				if current == nil {
					return fmt.Errorf("activity %s not found", id)
				}
				updated := *current
				if cmd.Flags().Changed("name") {
					updated.Name = name
				}
				if cmd.Flags().Changed("date") {
					updated.Date = date
				}
				if cmd.Flags().Changed("cost") {
					updated.Cost = cost
				}
				if cmd.Flags().Changed("in-charge") {
					updated.InCharge = inCharge
				}
				if cmd.Flags().Changed("type") {
					t, err := domain.ParseActivityType(actType)
					if err != nil {
						return err
					}
					updated.Type = t
				}
				if cmd.Flags().Changed("status") {
					st, err := domain.ParseActivityStatus(actStatus)
					if err != nil {
						return err
					}
					updated.Status = st
				}
				if _, err := e.UpdateActivity(ctx, updated); err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "activity id")
	cmd.Flags().StringVar(&name, "name", "", "activity name")
	cmd.Flags().StringVar(&date, "date", "", "calendar date")
	cmd.Flags().Float64Var(&cost, "cost", 0, "cost amount")
	cmd.Flags().StringVar(&inCharge, "in-charge", "", "responsible party")
	cmd.Flags().StringVar(&actType, "type", "", "category")
	cmd.Flags().StringVar(&actStatus, "status", "", "state")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func activityStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an activity to a new state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseActivityStatus(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.SetActivityStatus(ctx, args[0], st)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func activityAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Attach a file to an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AttachFile(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func activityDownloadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download an activity's attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				att, data, err := e.AttachmentData(ctx, args[0])
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = att.Name
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %s (%d bytes, %s)\n", path, len(data), att.Type)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to the attachment name)")
	return cmd
}

func activityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmPrompt("¿Estás seguro de eliminar esta actividad?") {
				fmt.Println("aborted")
				return nil
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteActivity(ctx, args[0])
			})
		},
	}
}

// --- dashboard, report, config, log, serve ---

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show event process figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				clients, err := e.Clients(ctx)
				if err != nil {
					return err
				}
				activities, err := e.Activities(ctx)
				if err != nil {
					return err
				}
				s := stats.Compute(clients, activities)
				breakdown := stats.StatusBreakdown(activities)
				costs := stats.CostByType(activities)
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"stats":            s,
						"status_breakdown": breakdown,
						"cost_by_type":     costs,
					})
				}
				fmt.Printf("Clientes Confirmados: %d / %d (%d%%)\n", s.ConfirmedClients, s.TotalClients, s.ConfirmationRate)
				fmt.Printf("Progreso Evento: %d%%\n", s.Progress)
				fmt.Printf("Costo Total: %s%v\n", e.Config.Event.Currency, s.TotalCost)
				fmt.Printf("Actividades Totales: %d\n\n", s.TotalActivities)

				tw := table.NewWriter()
				tw.AppendHeader(table.Row{"Estado", "Actividades"})
				for _, b := range breakdown {
					tw.AppendRow(table.Row{string(b.Status), b.Count})
				}
				fmt.Println(tw.Render())

				tw = table.NewWriter()
				tw.AppendHeader(table.Row{"Tipo", "Costo"})
				for _, c := range costs {
					tw.AppendRow(table.Row{string(c.Type), c.Cost})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
}

func reportCmd() *cobra.Command {
	r := &cobra.Command{Use: "report", Short: "Export the process report"}
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the report document to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				clients, err := e.Clients(ctx)
				if err != nil {
					return err
				}
				activities, err := e.Activities(ctx)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = e.Config.Report.Output
				}
				exp := report.New(e.Config)
				if err := exp.ExportFile(path, clients, activities); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", path)
				return nil
			})
		},
	}
	export.Flags().StringVar(&out, "out", "", "output path (defaults to config report.output)")
	r.AddCommand(export)
	return r
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage event config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show event config stored in the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if viper.GetBool("json") {
					return printJSON(e.Config)
				}
				out, err := e.Config.ToYAML()
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	})
	var filePath string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import event config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Repo.UpsertConfig(ctx, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	imp.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = imp.MarkFlagRequired("file")
	cfg.AddCommand(imp)
	return cfg
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the mutation log"}
	var n int
	var evtType, entityKind, entityID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail recent mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(evts)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	tail.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	lg.AddCommand(tail)
	return lg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				authCfg := server.AuthConfig{JWTSecret: os.Getenv("EMMARK_JWT_SECRET")}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Emmark API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	e := engine.New(conn, nil)
	cfg, err := app.ResolveConfig(ctx, e.Repo)
	if err != nil {
		return err
	}
	e.Config = cfg
	return fn(ctx, e)
}

func confirmPrompt(msg string) bool {
	if viper.GetBool("yes") {
		return true
	}
	fmt.Printf("%s [s/N]: ", msg)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
