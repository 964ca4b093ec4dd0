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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/qbank/internal/classifier"
	"github.com/pavelanni/qbank/internal/handler"
	appI18n "github.com/pavelanni/qbank/internal/i18n"
	"github.com/pavelanni/qbank/internal/llm"
	"github.com/pavelanni/qbank/internal/model"
	"github.com/pavelanni/qbank/internal/store"
	"github.com/pavelanni/qbank/internal/sufficiency"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qbank",
		Short: "Question bank classifier and coverage analyzer",
	}

	serve := serveCmd()
	root.AddCommand(serve, classifyCmd(), analyzeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `qbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP question bank server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "qbank.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Paths to questions JSON files to import at startup (repeatable)")
	f.String("llm-url", "", "OpenAI-compatible API base URL for question generation (empty = disabled)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.Float64("similarity-threshold", 0.8, "Cosine similarity cutoff for duplicate detection")
	f.Int("max-generate", 10, "Maximum questions per generation request")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set QBANK_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify questions from a JSON file without storing them",
		RunE:  runClassify,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Path to a JSON file with questions (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze bank coverage against a requirement matrix",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.String("db", "qbank.db", "SQLite database path")
	f.StringP("matrix", "m", "", "Path to a requirement matrix JSON file (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("matrix")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the classified question bank as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "qbank.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

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

	v.SetEnvPrefix("QBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("qbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/qbank")
	v.AddConfigPath("/etc/qbank")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Import questions from all specified files.
	if err := loadQuestions(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create LLM client if a generation endpoint is configured. The
	// generator stays a nil interface otherwise so the handler can tell.
	var gen handler.Generator
	if url := v.GetString("llm-url"); url != "" {
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := client.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		gen = client
	}

	cfg := model.ServerConfig{
		Lang:                lang,
		SimilarityThreshold: v.GetFloat64("similarity-threshold"),
		MaxGenerate:         v.GetInt("max-generate"),
		SecureCookies:       v.GetBool("secure-cookies"),
	}

	h, err := handler.New(db, gen, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	bankSize, err := db.QuestionCount()
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"questions", bankSize,
		"lang", lang,
		"similarity_threshold", cfg.SimilarityThreshold,
		"max_generate", cfg.MaxGenerate,
		"generation_enabled", gen != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	path := v.GetString("input")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var imports []model.QuestionImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	type classified struct {
		model.QuestionImport
		Classification model.Classification `json:"classification"`
	}
	out := make([]classified, 0, len(imports))
	for _, item := range imports {
		out = append(out, classified{
			QuestionImport: item,
			Classification: classifier.Classify(item.Text, item.Type),
		})
	}

	return writeJSON(v.GetString("output"), out)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	path := v.GetString("matrix")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var matrix model.RequirementMatrix
	if err := json.Unmarshal(data, &matrix); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	inventory, err := db.ListQuestions()
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}

	analysis, err := sufficiency.Analyze(matrix, inventory)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	slog.Info("sufficiency analysis",
		"matrix", matrix.Name,
		"score", analysis.OverallScore,
		"status", analysis.OverallStatus,
		"gap", analysis.TotalGap)
	return writeJSON(v.GetString("output"), analysis)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportBank()
	if err != nil {
		return fmt.Errorf("export bank: %w", err)
	}

	return writeJSON(v.GetString("output"), export)
}

func writeJSON(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// loadQuestions imports questions files that have not been imported before.
// A file is identified by path and content hash; a changed file is skipped
// with a warning so a re-import does not duplicate its questions.
func loadQuestions(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to avoid duplicate questions",
				"path", path)
			continue
		}

		var questions []model.QuestionImport
		if err := json.Unmarshal(data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		flagged := 0
		for _, qi := range questions {
			c := classifier.Classify(qi.Text, qi.Type)
			if c.NeedsReview {
				flagged++
			}
			_, err := db.InsertQuestion(model.Question{
				Text:           qi.Text,
				Type:           qi.Type,
				Topic:          qi.Topic,
				Classification: c,
			})
			if err != nil {
				return fmt.Errorf("insert question from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported questions", "path", path, "count", len(questions), "flagged_for_review", flagged)
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or QBANK_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
