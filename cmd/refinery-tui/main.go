package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/config"
	"github.com/Conceptual-Machines/refinery-api/internal/llm"
	"github.com/Conceptual-Machines/refinery-api/internal/metrics"
	"github.com/Conceptual-Machines/refinery-api/internal/prompt"
	"github.com/Conceptual-Machines/refinery-api/internal/services"
	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/Conceptual-Machines/refinery-api/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	refs   []string
	count  int
	out    string
	model  string
	prompt string
	apiKey string
	style  string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "refinery-tui",
		Short:        "Generate and refine images from reference images in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Four variations of a prompt, saved on demand to ./out
  refinery-tui --ref a.png --ref b.png --count 4 --out ./out --prompt "a lighthouse at dusk"

  # Use an OpenAI image model
  refinery-tui --ref a.png --model gpt-image-1
`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.refs, "ref", nil, "reference image path (repeatable)")
	cmd.Flags().IntVar(&opts.count, "count", 0, "images per generation (4-10, defaults to DEFAULT_IMAGE_COUNT)")
	cmd.Flags().StringVar(&opts.out, "out", ".", "directory images are saved to")
	cmd.Flags().StringVar(&opts.model, "model", "", "image model (defaults to IMAGE_MODEL)")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "generate immediately with this prompt")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "image API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().StringVar(&opts.style, "style", "", "replace the built-in style section")
	_ = cmd.MarkFlagRequired("ref")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	_ = godotenv.Load()
	cfg := config.Load()

	// Keep library logging out of the alt screen
	log.SetOutput(discardUnlessDebug())

	model := opts.model
	if model == "" {
		model = cfg.ImageModel
	}
	provider := llm.ProviderNameForModel(model)
	if provider == "" {
		return fmt.Errorf("unsupported image model %q", model)
	}

	count := opts.count
	if count == 0 {
		count = cfg.DefaultImageCount
	}
	if count < services.MinInitialCount || count > services.MaxInitialCount {
		return fmt.Errorf("--count must be between %d and %d", services.MinInitialCount, services.MaxInitialCount)
	}

	refs, err := tui.LoadReferences(opts.refs)
	if err != nil {
		return err
	}

	credential := strings.TrimSpace(opts.apiKey)
	if credential == "" {
		credential = cfg.FallbackAPIKey(provider)
	}

	generator := llm.NewBatchGenerator(llm.NewProviderFactory(), cfg.ImageModel, cfg.MaxParallelSlots)
	service := services.NewStudioService(
		services.NewOrchestrator(generator, prompt.NewPromptBuilderWithStyle(opts.style)),
		generator,
		studio.NewSessions(0),
		services.StudioOptions{
			Counters:     metrics.NewCounters(),
			DefaultModel: cfg.ImageModel,
		},
	)

	m := tui.New(ctx, tui.Options{
		Service:    service,
		Credential: credential,
		Model:      opts.model,
		Prompt:     opts.prompt,
		References: refs,
		Count:      count,
		OutDir:     opts.out,
	})

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func discardUnlessDebug() *os.File {
	if os.Getenv("REFINERY_TUI_DEBUG") != "" {
		return os.Stderr
	}
	f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr
	}
	return f
}
