package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/paperbank/internal/handler"
	appI18n "github.com/pavelanni/paperbank/internal/i18n"
	"github.com/pavelanni/paperbank/internal/ingest"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/pdftext"
	"github.com/pavelanni/paperbank/internal/profile"
	"github.com/pavelanni/paperbank/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "paperbank",
		Short:        "Past-paper question bank: extract questions and mark schemes from exam PDFs",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, ingestCmd(), parseCmd(), linkCmd(), profilesCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `paperbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "paperbank.db", "SQLite database path")
	f.StringP("profiles", "p", "", "Directory of subject profiles layered over the built-in ones")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /papers-api)")
	f.Int64("max-upload-mb", 32, "Maximum upload size in megabytes")
	f.Int("max-pages", 0, "Stop reading PDFs after this many pages (0 = all)")
	addLogFlags(cmd)
	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Import PDF files or directories of PDFs into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
	f := cmd.Flags()
	f.String("db", "paperbank.db", "SQLite database path")
	f.StringP("profiles", "p", "", "Directory of subject profiles layered over the built-in ones")
	f.IntP("workers", "w", 4, "Number of documents processed in parallel")
	f.Bool("force", false, "Re-import files whose content has not changed")
	f.Int("max-pages", 0, "Stop reading PDFs after this many pages (0 = all)")
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored papers, questions and mark schemes as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "paperbank.db", "SQLite database path")
	f.String("subject", "", "Only export this subject code")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAPERBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("paperbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/paperbank")
	v.AddConfigPath("/etc/paperbank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadProfiles builds the registry from the built-in profiles plus dir.
func loadProfiles(dir string) (*profile.Registry, error) {
	reg := profile.NewRegistry()
	if err := reg.LoadDefaults(); err != nil {
		return nil, fmt.Errorf("load built-in profiles: %w", err)
	}
	if dir != "" {
		if err := reg.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("load profiles from %s: %w", dir, err)
		}
	}
	return reg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	profiles, err := loadProfiles(v.GetString("profiles"))
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	in := ingest.New(db, profiles, pdftext.Reader{MaxPages: v.GetInt("max-pages")}, model.IngestConfig{Workers: 1})
	h := handler.New(db, profiles, in, handler.Config{MaxUploadBytes: v.GetInt64("max-upload-mb") << 20})

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"profiles", len(profiles.List()),
		"lang", lang,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runIngest(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	profiles, err := loadProfiles(v.GetString("profiles"))
	if err != nil {
		return err
	}

	cfg := model.IngestConfig{
		Workers: v.GetInt("workers"),
		Force:   v.GetBool("force"),
	}
	in := ingest.New(db, profiles, pdftext.Reader{MaxPages: v.GetInt("max-pages")}, cfg)

	report, err := in.Run(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d imported, %d skipped, %d failed\n",
		report.RunID, len(report.Imported), len(report.Skipped), len(report.Failures))
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  %s: %s: %v\n", f.Path, f.Kind, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d documents failed", len(report.Failures))
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	subject := v.GetString("subject")
	records, err := db.ExportPapers(subject)
	if err != nil {
		return fmt.Errorf("export papers: %w", err)
	}
	if records == nil {
		records = []model.PaperRecord{}
	}

	export := model.PaperExport{
		ExportedAt: nowUTC(),
		Subject:    subject,
		NumPapers:  len(records),
		Papers:     records,
	}
	return writeJSON(v.GetString("output"), export)
}

// writeJSON writes v as indented JSON to path, or to stdout for "" and "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
