// docx-translator rebuilds a .docx document as a bilingual version of
// itself: every paragraph and table cell is followed by its translation,
// with the original formatting, images and table structure preserved.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"docx-translator/internal/backend"
	"docx-translator/internal/config"
	"docx-translator/internal/logger"
	"docx-translator/internal/pipeline"
	"docx-translator/internal/types"
)

const version = "1.0.0"

type cli struct {
	Verbose bool   `short:"v" help:"Enable debug logging."`
	Config  string `short:"c" help:"Path to the config file." type:"path"`

	Translate translateCmd `cmd:"" default:"withargs" help:"Translate a .docx file into a bilingual document."`
	Check     checkCmd     `cmd:"" help:"Verify the API configuration with a test request."`
	Version   versionCmd   `cmd:"" help:"Print the version."`
}

type translateCmd struct {
	Input string `arg:"" help:"Path to the source .docx file." type:"existingfile"`

	APIKey        string `help:"API key, overrides config and environment." env:"OPENAI_API_KEY"`
	BaseURL       string `help:"API base URL." env:"OPENAI_BASE_URL"`
	Model         string `help:"Model name."`
	Target        string `help:"Target language, as a name or a BCP 47 tag such as zh-Hans."`
	Concurrency   int    `help:"Number of concurrent translation requests."`
	MaxChars      int    `help:"Maximum characters per translation request."`
	Suffix        string `help:"Output filename suffix."`
	FallbackFont  string `help:"Font applied to translated text."`
	ConvertLegacy bool   `help:"Convert EMF and WMF images to PNG with ImageMagick."`
}

type checkCmd struct {
	APIKey  string `help:"API key, overrides config and environment." env:"OPENAI_API_KEY"`
	BaseURL string `help:"API base URL." env:"OPENAI_BASE_URL"`
	Model   string `help:"Model name."`
}

type versionCmd struct{}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("docx-translator"),
		kong.Description("Structure-preserving bilingual translation of Word documents."),
		kong.UsageOnError(),
	)

	logCfg := logger.DefaultConfig()
	if c.Verbose {
		logCfg.Level = logger.LevelDebug
		logCfg.EnableConsole = true
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败: %v\n", err)
	}
	defer logger.Close()

	err := kctx.Run(&c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment, and command line. Flags
// win over everything.
func loadConfig(path string) (types.Config, error) {
	mgr, err := config.NewManager(path)
	if err != nil {
		return types.Config{}, err
	}
	if err := mgr.Load(); err != nil {
		return types.Config{}, err
	}
	return *mgr.Get(), nil
}

func (t *translateCmd) Run(c *cli) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if t.APIKey != "" {
		cfg.OpenAIAPIKey = t.APIKey
	}
	if t.BaseURL != "" {
		cfg.OpenAIBaseURL = t.BaseURL
	}
	if t.Model != "" {
		cfg.OpenAIModel = t.Model
	}
	if t.Target != "" {
		cfg.TargetLanguage = resolveLanguage(t.Target)
	}
	if t.Concurrency > 0 {
		cfg.Concurrency = t.Concurrency
	}
	if t.MaxChars > 0 {
		cfg.MaxChunkChars = t.MaxChars
	}
	if t.Suffix != "" {
		cfg.OutputSuffix = t.Suffix
	}
	if t.FallbackFont != "" {
		cfg.FallbackFont = t.FallbackFont
	}
	if t.ConvertLegacy {
		cfg.ConvertLegacyImages = true
	}

	if cfg.OpenAIAPIKey == "" {
		return types.NewAppError(types.ErrConfig,
			"缺少 API 密钥，请通过 --api-key、环境变量或配置文件提供", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg)
	p.OnProgress = func(completed, total int) {
		fmt.Printf("\r翻译进度: %d/%d", completed, total)
		if completed == total {
			fmt.Println()
		}
	}

	output, err := p.Run(ctx, t.Input)
	if err != nil {
		return err
	}
	fmt.Printf("已保存: %s\n", output)
	return nil
}

// resolveLanguage accepts either a human-readable language name or a
// BCP 47 tag. Tags are expanded to their English display name, which is
// what the translation prompt expects.
func resolveLanguage(target string) string {
	tag, err := language.Parse(target)
	if err != nil {
		return target
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return target
}

func (t *checkCmd) Run(c *cli) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if t.APIKey != "" {
		cfg.OpenAIAPIKey = t.APIKey
	}
	if t.BaseURL != "" {
		cfg.OpenAIBaseURL = t.BaseURL
	}
	if t.Model != "" {
		cfg.OpenAIModel = t.Model
	}
	if cfg.OpenAIAPIKey == "" {
		return types.NewAppError(types.ErrConfig, "缺少 API 密钥", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		cfg.OpenAIModel, cfg.TargetLanguage)
	if err := client.TestConnection(ctx); err != nil {
		return err
	}
	fmt.Println("API 连接正常")
	return nil
}

func (v *versionCmd) Run(c *cli) error {
	fmt.Printf("docx-translator %s\n", version)
	return nil
}
