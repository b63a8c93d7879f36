package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// APIKeyEnv is the environment variable holding the OpenAI API key.
const APIKeyEnv = "OPENAI_API_KEY"

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure analysis, LLM provider and link checking options.

Settings are stored in ~/.marginalia/config.toml. The API key is never written
there; it is read from OPENAI_API_KEY or the .env file next to the config.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the analysis provider",
	Long: `Interactively choose the provider that produces findings.

  heuristic - offline rule-based checks (default, no setup required)
  openai    - an OpenAI or OpenAI-compatible chat completion endpoint`,
	RunE: runSettingsLLM,
}

var settingsAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Set analysis options",
	Long:  `Set the default plugins, timeout, retries, isolation and chunk size.`,
	RunE:  runSettingsAnalysis,
}

var (
	setPlugins   []string
	setTimeout   time.Duration
	setAttempts  int
	setIsolation bool
	setChunkSize int
)

func init() {
	f := settingsAnalysisCmd.Flags()
	f.StringSliceVar(&setPlugins, "plugins", nil, "default plugins")
	f.DurationVar(&setTimeout, "timeout", 0, "per-attempt plugin timeout")
	f.IntVar(&setAttempts, "attempts", 0, "maximum attempts per plugin")
	f.BoolVar(&setIsolation, "isolation", true, "fresh plugin instances per analysis")
	f.IntVar(&setChunkSize, "chunk-size", 0, "target chunk size in bytes")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsAnalysisCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings := settingsService.Get()
	a := settings.Analysis

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Analysis]")
	cmd.Printf("  Plugins: %s\n", joinPlugins(a.Plugins))
	cmd.Printf("  Timeout: %s\n", a.PluginTimeout)
	cmd.Printf("  Max attempts: %d (base delay %s)\n", a.MaxAttempts, a.RetryBaseDelay)
	cmd.Printf("  Isolation: %s\n", yesNo(a.Isolation))
	cmd.Printf("  Chunk size: %d (context %d)\n", a.ChunkSize, a.ContextSize)
	cmd.Printf("  Min partial length: %d\n", a.MinPartialLength)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
		}
		if key := os.Getenv(APIKeyEnv); key != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(key))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Links]")
	cmd.Printf("  Requests per second: %g\n", settings.Links.RequestsPerSecond)
	cmd.Printf("  Timeout: %s\n", settings.Links.Timeout)
	cmd.Println()

	if settings.LLM.Provider.RequiresAPIKey() && os.Getenv(APIKeyEnv) == "" {
		cmd.Printf("Warning: %s is not set; analyses will fail until it is.\n", APIKeyEnv)
		cmd.Println("Run 'marginalia settings llm' to store a key.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	settings := settingsService.Get()

	cmd.Println("Select Analysis Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]
	settings.LLM.Provider = selected

	if selected.RequiresAPIKey() {
		model := settings.LLM.Model
		if model == "" {
			model = domain.DefaultLLMModel
		}
		cmd.Printf("Enter model name [%s]: ", model)
		if input := readLine(reader); input != "" {
			model = input
		}
		settings.LLM.Model = model

		cmd.Printf("Enter base URL (empty for api.openai.com) [%s]: ", settings.LLM.BaseURL)
		if input := readLine(reader); input != "" {
			settings.LLM.BaseURL = input
		}

		cmd.Printf("Enter API key (empty to keep %s): ", APIKeyEnv)
		apiKey := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey != "" {
			if envFile == "" {
				return errors.New("no .env location configured")
			}
			if err := saveAPIKey(envFile, apiKey); err != nil {
				return fmt.Errorf("failed to store API key: %w", err)
			}
			cmd.Printf("API key stored in %s\n", envFile)
		} else if os.Getenv(APIKeyEnv) == "" {
			cmd.Printf("Note: set %s before running an analysis.\n", APIKeyEnv)
		}
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Analysis provider configured: %s\n", selected.Description())
	return nil
}

func runSettingsAnalysis(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings := settingsService.Get()
	flags := cmd.Flags()
	if flags.Changed("plugins") {
		ids := make([]domain.PluginID, 0, len(setPlugins))
		for _, name := range setPlugins {
			id, err := domain.ParsePluginID(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		settings.Analysis.Plugins = ids
	}
	if flags.Changed("timeout") {
		if setTimeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive", domain.ErrInvalidInput)
		}
		settings.Analysis.PluginTimeout = setTimeout
	}
	if flags.Changed("attempts") {
		if setAttempts < 1 {
			return fmt.Errorf("%w: attempts must be at least 1", domain.ErrInvalidInput)
		}
		settings.Analysis.MaxAttempts = setAttempts
	}
	if flags.Changed("isolation") {
		settings.Analysis.Isolation = setIsolation
	}
	if flags.Changed("chunk-size") {
		if setChunkSize <= 0 {
			return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
		}
		settings.Analysis.ChunkSize = setChunkSize
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Analysis settings saved.")
	return nil
}

// saveAPIKey writes the key into a dotenv file, keeping other entries.
func saveAPIKey(path, key string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		env = map[string]string{}
	}
	env[APIKeyEnv] = key
	if err := godotenv.Write(env, path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// Helper functions.

func joinPlugins(ids []domain.PluginID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
