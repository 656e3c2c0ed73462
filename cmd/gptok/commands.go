package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/gptok/tokenizer"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		allowed  []string
		ordinary bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Print the token ids of text (stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoding()
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			opts := []tokenizer.EncodeOption{tokenizer.WithAllowedSpecial(allowed...)}
			if ordinary {
				opts = append(opts, tokenizer.WithDisallowedSpecial())
			}

			ids, err := enc.Encode(text, opts...)
			if err != nil {
				return err
			}
			return writeIDs(cmd.OutOrStdout(), ids, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&allowed, "allow-special", nil, `special tokens to encode as ids ("all" for every one)`)
	cmd.Flags().BoolVar(&ordinary, "ordinary", false, "encode special token literals as plain text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "decode [id...]",
		Short: "Print the text of token ids (stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoding()
			if err != nil {
				return err
			}

			fields := args
			if len(fields) == 0 {
				text, err := readText(cmd, nil)
				if err != nil {
					return err
				}
				fields = strings.FieldsFunc(text, func(r rune) bool {
					return r == ',' || r == '[' || r == ']' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
				})
			}

			ids := make([]int, len(fields))
			for i, f := range fields {
				if ids[i], err = strconv.Atoi(f); err != nil {
					return fmt.Errorf("token %d: %w", i, err)
				}
			}

			if strict {
				text, err := enc.DecodeStrict(ids)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), text)
				return err
			}

			// Stream so a partial character is never printed mid-way.
			d := enc.NewStreamDecoder()
			out := cmd.OutOrStdout()
			for _, id := range ids {
				if _, err := io.WriteString(out, d.Write(id)); err != nil {
					return err
				}
			}
			_, err = io.WriteString(out, d.Flush())
			return err
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on ids outside the vocabulary")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "count [text...]",
		Short: "Count the tokens of text (stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoding()
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			if limit < 0 {
				n, err := enc.CountTokens(text)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
				return err
			}

			n, ok, err := enc.IsWithinTokenLimit(text, limit)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: more than %d tokens", errLimitExceeded, limit)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", -1, "stop counting and fail once the count exceeds this")
	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	var render, encode bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Count the prompt tokens of a chat request read as JSON from stdin",
		Long: "Reads a chat-completion request ({\"messages\": [...], \"functions\": [...], \"function_call\": ...})\n" +
			"and prints the prompt tokens the API bills for it. --render and --encode use the\n" +
			"encoding's own chat format instead.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, err := a.encoding()
			if err != nil {
				return err
			}

			var req tokenizer.ChatRequest
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&req); err != nil {
				return fmt.Errorf("decode chat request: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case render:
				text, err := enc.RenderChat(req.Messages)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, text)
				return err
			case encode:
				ids, err := enc.EncodeChat(req.Messages)
				if err != nil {
					return err
				}
				return writeIDs(out, ids, true)
			default:
				n, err := enc.CountChatTokens(req)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, n)
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "print the transcript in the encoding's chat format")
	cmd.Flags().BoolVar(&encode, "encode", false, "print the ids of the transcript in the encoding's chat format")
	cmd.MarkFlagsMutuallyExclusive("render", "encode")
	return cmd
}

func newCostCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <tokens>",
		Short: "Print the USD price of a token count for --model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := strconv.Atoi(args[0])
			if err != nil || tokens < 0 {
				return fmt.Errorf("invalid token count %q", args[0])
			}

			enc, err := a.encoding()
			if err != nil {
				return err
			}

			cost, err := enc.EstimateCost(tokens, "")
			if err != nil {
				return err
			}

			e := json.NewEncoder(cmd.OutOrStdout())
			e.SetIndent("", "  ")
			return e.Encode(cost)
		},
	}
}

func newEncodingsCmd(a *app) *cobra.Command {
	var listModels bool

	cmd := &cobra.Command{
		Use:   "encodings",
		Short: "List the built-in encodings, or the catalog models with --models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if !listModels {
				for _, name := range tokenizer.EncodingNames() {
					if _, err := fmt.Fprintln(out, name); err != nil {
						return err
					}
				}
				return nil
			}

			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			var names []string
			if catalog != nil {
				names = catalog.Names()
			} else if names, err = tokenizer.ModelNames(); err != nil {
				return err
			}

			for _, name := range names {
				if _, err := fmt.Fprintln(out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listModels, "models", false, "list catalog models instead")
	return cmd
}

func writeIDs(w io.Writer, ids []int, asJSON bool) error {
	if asJSON {
		if ids == nil {
			ids = []int{}
		}
		return json.NewEncoder(w).Encode(ids)
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
