package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/gptok/internal/logutil"
	"github.com/born-ml/gptok/tokenizer"
)

const (
	envPrefix       = "GPTOK"
	defaultEncoding = tokenizer.O200kBase
	version         = "v0.1.0"
)

// errLimitExceeded makes count exit non-zero when --limit is exceeded.
var errLimitExceeded = errors.New("token limit exceeded")

// app holds the settings shared by every command. Values come from flags,
// GPTOK_* environment variables and an optional config file, in that order
// of precedence.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "gptok",
		Short:         "Count, encode and price tokens for OpenAI models.",
		Long:          "gptok encodes text with the byte-pair encodings used by OpenAI models.\nAll vocabularies are embedded; no network access is needed.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML, JSON or TOML)")
	flags.StringP("encoding", "e", "", "encoding name (default "+defaultEncoding+")")
	flags.StringP("model", "m", "", "model name; selects the encoding and prices")
	flags.String("catalog", "", "model catalog file replacing the embedded one")
	flags.CountP("verbose", "v", "log verbosity (-v debug, -vv trace)")

	for _, name := range []string{"encoding", "model", "catalog", "verbose"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCountCmd(a),
		newChatCmd(a),
		newCostCmd(a),
		newEncodingsCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.logger = logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(a.v.GetInt("verbose")))
	slog.SetDefault(a.logger)
	return nil
}

// catalog returns the configured catalog, or nil for the embedded one.
func (a *app) catalog() (*tokenizer.Catalog, error) {
	path := a.v.GetString("catalog")
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return tokenizer.ParseCatalog(data)
}

// encoding resolves the encoding from --model, then --encoding, then the
// default.
func (a *app) encoding() (*tokenizer.Encoding, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}

	var opts []tokenizer.Option
	if catalog != nil {
		opts = append(opts, tokenizer.WithCatalog(catalog))
	}

	model := a.v.GetString("model")
	name := a.v.GetString("encoding")
	registry := tokenizer.NewRegistry(tokenizer.WithLogger(a.logger))

	var enc *tokenizer.Encoding
	if model != "" && name == "" {
		enc, err = tokenizer.FromRegistryForModel(registry, model, opts...)
	} else {
		if name == "" {
			name = defaultEncoding
		}
		if model != "" {
			opts = append(opts, tokenizer.WithModel(model))
		}
		enc, err = tokenizer.FromRegistry(registry, name, opts...)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Debug("resolved encoding", "encoding", enc.Name(), "model", model)
	return enc, nil
}

// readText joins args, or reads stdin when there are none.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
