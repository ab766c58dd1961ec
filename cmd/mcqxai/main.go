package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/mcqxai/internal/handler"
	appI18n "github.com/pavelanni/mcqxai/internal/i18n"
	"github.com/pavelanni/mcqxai/internal/lectures"
	"github.com/pavelanni/mcqxai/internal/llm"
	"github.com/pavelanni/mcqxai/internal/model"
	"github.com/pavelanni/mcqxai/internal/pipeline"
	"github.com/pavelanni/mcqxai/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcqxai",
		Short: "Explain multiple-choice answers with lecture evidence and an LLM",
	}

	explain := explainCmd()
	root.AddCommand(explain, importCmd(), exportCmd(), serveCmd())

	// Make "explain" the default when no subcommand is given.
	root.RunE = explain.RunE
	root.Flags().AddFlagSet(explain.Flags())

	return root
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("provider", "p", llm.ProviderDeepSeek, "LLM provider (deepseek, openai, anthropic, gemini, mock)")
	f.String("api-key", "", "LLM API key (or set the provider's *_API_KEY env var)")
	f.String("base-url", "", "Override the provider's API base URL")
	f.String("model", "", "Override the provider's default model")
	f.Duration("timeout", llm.DefaultTimeout, "Maximum wait for one LLM call")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain one answer and print the result",
		RunE:  runExplain,
	}
	f := cmd.Flags()
	f.StringP("question", "q", lectures.SampleQuestion, "Question text")
	f.StringP("student", "s", lectures.SampleStudentAnswer, "Student's answer")
	f.StringP("correct", "c", lectures.SampleCorrectAnswer, "Correct answer")
	f.String("docs", "", "Lecture notes file, paragraphs separated by blank lines")
	f.String("db", "", "SQLite lecture store to read paragraphs from")
	f.String("source", "", "Limit stored paragraphs to one source")
	f.StringP("lang", "l", "en", "Feedback language ("+strings.Join(appI18n.Languages(), ", ")+")")
	f.StringP("format", "f", "text", "Output format (text, json)")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import lecture notes into the SQLite store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "mcqxai.db", "SQLite database path")
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored lecture paragraphs as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mcqxai.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP explain server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mcqxai.db", "SQLite lecture store path")
	f.StringP("lang", "l", "en", "Default feedback language ("+strings.Join(appI18n.Languages(), ", ")+")")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func setupLogging(v *viper.Viper) {
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

	v.SetEnvPrefix("MCQXAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mcqxai")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mcqxai")
	v.AddConfigPath("/etc/mcqxai")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// llmConfig resolves the provider configuration. The API key comes from
// --api-key, then MCQXAI_API_KEY, then the provider's own variable such as
// DEEPSEEK_API_KEY, then the config file.
func llmConfig(v *viper.Viper) llm.Config {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("provider")))
	if provider == "" {
		provider = llm.ProviderDeepSeek
	}
	envs := []string{"api-key", "MCQXAI_API_KEY"}
	if name := llm.EnvVar(provider); name != "" {
		envs = append(envs, name)
	}
	_ = v.BindEnv(envs...)

	return llm.Config{
		Provider: provider,
		APIKey:   v.GetString("api-key"),
		BaseURL:  v.GetString("base-url"),
		Model:    v.GetString("model"),
		Timeout:  v.GetDuration("timeout"),
	}
}

func runExplain(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))

	docs, err := loadDocuments(v)
	if err != nil {
		return err
	}
	slog.Info(appI18n.Tp(ctx, "DocumentsLoaded", len(docs)))

	cfg := llmConfig(v)
	explainer := pipeline.New(
		pipeline.WithProviderConfig(cfg),
		pipeline.WithTexts(appI18n.ReasonerTexts(ctx)),
	)

	res := explainer.Run(ctx, model.Request{
		Question:      v.GetString("question"),
		StudentAnswer: v.GetString("student"),
		CorrectAnswer: v.GetString("correct"),
		Documents:     docs,
	}, nil)

	return printResult(ctx, cmd.OutOrStdout(), res, v.GetString("format"))
}

// loadDocuments picks the lecture source: --docs file, then --db store,
// then the built-in samples.
func loadDocuments(v *viper.Viper) ([]string, error) {
	if path := v.GetString("docs"); path != "" {
		return lectures.LoadFile(path)
	}
	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		paras, err := db.ListParagraphs(v.GetString("source"))
		if err != nil {
			return nil, fmt.Errorf("list paragraphs: %w", err)
		}
		return model.Texts(paras), nil
	}
	slog.Info("no lecture source given, using sample documents")
	return lectures.Samples(), nil
}

func printResult(ctx context.Context, w io.Writer, res model.Result, format string) error {
	if strings.ToLower(format) == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	sep := strings.Repeat("=", 60)
	_, err := fmt.Fprintf(w, "%s\n%s: %s\n\n%s:\n%s\n\n%s:\n%s\n\n%s:\n%s\n%s\n",
		sep,
		appI18n.T(ctx, "Status"), appI18n.StatusLabel(ctx, string(res.Status)),
		appI18n.T(ctx, "Explanation"), res.Explanation,
		appI18n.T(ctx, "Evidence"), res.Evidence,
		appI18n.T(ctx, "ReviewTopic"), res.ReviewTopic,
		sep,
	)
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return importLectures(db, args)
}

func importLectures(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.ImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("lecture file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("lecture file changed since last import, skipping; delete the source to re-import",
				"path", path)
			continue
		}

		paras := lectures.Split(string(data))
		if len(paras) == 0 {
			return fmt.Errorf("%s contains no paragraphs", path)
		}
		n, err := db.ImportParagraphs(path, paras)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported lecture paragraphs", "path", path, "count", n)
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportLectures()
	if err != nil {
		return fmt.Errorf("export lectures: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Build the provider once; it is stateless and shared across requests.
	cfg := llmConfig(v)
	provider, err := llm.NewProvider(cmd.Context(), cfg)
	var explainer *pipeline.Explainer
	if err != nil {
		slog.Warn("LLM provider unavailable, serving rule-based explanations", "provider", cfg.Provider, "error", err)
		providerErr := err
		explainer = pipeline.New(pipeline.WithProviderFactory(func(context.Context) (llm.Provider, error) {
			return nil, providerErr
		}))
		provider = nil
	} else {
		explainer = pipeline.New()
	}

	h := handler.New(explainer, provider, db)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"provider", cfg.Provider,
		"llm_enabled", provider != nil,
		"lang", lang,
		"paragraphs", paragraphCount(db),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// paragraphCount is for the startup log only; a failure is logged and
// reported as zero.
func paragraphCount(db *store.Store) int {
	count, err := db.ParagraphCount()
	if err != nil {
		slog.Warn("count lecture paragraphs", "error", err)
		return 0
	}
	return count
}
