package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	settingsPath     string
	outputDir        string
	apiKey           string
	layoutPath       string
	writerPromptPath string
	userPromptPath   string
	maxSlugLength    int
	convertHTML      bool
	limit            int
	dryRun           bool
	debugMode        bool
)

var rootCmd = &cobra.Command{
	Use:   "content-writer",
	Short: "Generate markdown content files from CSV rows",
	Long: `Converts CSV rows describing blog topics or question/answer pairs into
markdown files with frontmatter. Blog bodies are written by an AI agent.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			SetDebugMode(true)
		}
	},
}

var blogCmd = &cobra.Command{
	Use:   "blog [csv-file]",
	Short: "Generate blog posts from a Title,Category,Tags,Image CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := overridesFromFlags(cmd, args)

		settings, err := LoadSettings(overrides)
		if err != nil {
			return err
		}

		var generator ContentGenerator
		if !dryRun {
			// Get API key
			if apiKey == "" {
				apiKey = os.Getenv("ANTHROPIC_API_KEY")
			}

			prompts, err := LoadPrompts(overrides)
			if err != nil {
				return err
			}
			generator, err = NewWriterGenerator(apiKey, settings.Agents.Writer, prompts)
			if err != nil {
				return err
			}
		}

		processor := NewContentProcessor(settings.BlogConfig(), generator)
		if _, err := processor.ProcessFile(PipelineBlog); err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}

		fmt.Println("\n🎉 All done!")
		return nil
	},
}

var qnaCmd = &cobra.Command{
	Use:   "qna [csv-file]",
	Short: "Generate question pages from a Question,Answer CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := LoadSettings(overridesFromFlags(cmd, args))
		if err != nil {
			return err
		}

		processor := NewContentProcessor(settings.QnAConfig(), nil)
		if _, err := processor.ProcessFile(PipelineQnA); err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}

		fmt.Println("Done generating markdown files!")
		return nil
	},
}

// overridesFromFlags builds ConfigOverrides from the flags that were set
func overridesFromFlags(cmd *cobra.Command, args []string) *ConfigOverrides {
	overrides := &ConfigOverrides{}
	if len(args) > 0 {
		overrides.InputPath = &args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("settings") {
		overrides.SettingsPath = &settingsPath
	}
	if flags.Changed("output") {
		overrides.OutputDirectory = &outputDir
	}
	if flags.Changed("layout") {
		overrides.Layout = &layoutPath
	}
	if flags.Changed("writer-prompt") {
		overrides.WriterPromptPath = &writerPromptPath
	}
	if flags.Changed("user-prompt") {
		overrides.UserPromptPath = &userPromptPath
	}
	if flags.Changed("max-slug-length") {
		overrides.MaxSlugLength = &maxSlugLength
	}
	if flags.Changed("html") {
		overrides.ConvertHTML = &convertHTML
	}
	if flags.Changed("limit") {
		overrides.Limit = &limit
	}
	if flags.Changed("dry-run") {
		overrides.DryRun = &dryRun
	}
	return overrides
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to settings file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output directory")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "Process at most N records")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log target files without generating or writing")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	blogCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key")
	blogCmd.Flags().StringVar(&layoutPath, "layout", "", "Layout path written to frontmatter")
	blogCmd.Flags().StringVar(&writerPromptPath, "writer-prompt", "", "Path to custom writer system prompt file")
	blogCmd.Flags().StringVar(&userPromptPath, "user-prompt", "", "Path to custom writer user prompt file")

	qnaCmd.Flags().IntVar(&maxSlugLength, "max-slug-length", 100, "Maximum slug length (0 for unbounded)")
	qnaCmd.Flags().BoolVar(&convertHTML, "html", false, "Convert HTML answers to markdown")

	rootCmd.AddCommand(blogCmd)
	rootCmd.AddCommand(qnaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
