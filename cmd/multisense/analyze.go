package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/cli"
	"github.com/hyperjump/multisense/internal/fnvhash"
	"github.com/hyperjump/multisense/internal/models"
)

const defaultWord = "car"

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		word      string
		basename  string
		topN      int
		threshold float64
		output    string
	)
	cmd := &cobra.Command{
		Use:   "analyze [word]",
		Short: "Compare the two prototypes of a word and list their nearest neighbours",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				word = args[0]
			}
			if cmd.Flags().Changed("model-basename") {
				a.cfg.Model.Basename = basename
			}
			if cmd.Flags().Changed("top-n") {
				a.cfg.Analysis.TopN = topN
			}
			if cmd.Flags().Changed("threshold") {
				a.cfg.Analysis.DistinctThreshold = &threshold
			}

			a.logger.Info("loading model", zap.String("basename", a.cfg.Model.Basename))
			an, err := a.loadAnalyzer()
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			report, err := an.Analyze(word)
			if err != nil {
				return notFound(word, err)
			}
			return cli.WriteReport(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().StringVar(&word, "word", defaultWord, "word to analyze")
	cmd.Flags().StringVar(&basename, "model-basename", "", "model basename B (prototype 1 in B.vec, prototype 2 in B2.vec)")
	cmd.Flags().IntVar(&topN, "top-n", 0, "neighbours per prototype (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "self-similarity below which prototypes count as distinct (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newNeighborsCmd(a *app) *cobra.Command {
	var (
		prototype int
		limit     int
		basename  string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "neighbors <word>",
		Short: "List the nearest neighbours of a word under one prototype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			query := models.NeighborQuery{Word: args[0], Prototype: prototype, Limit: limit}
			if err := query.Validate(a.cfg.Analysis.TopN, a.cfg.Analysis.MaxTopN); err != nil {
				return err
			}
			if cmd.Flags().Changed("model-basename") {
				a.cfg.Model.Basename = basename
			}
			an, err := a.loadAnalyzer()
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			neighbors, err := an.Neighbors(query.Word, query.Prototype, query.Limit)
			if err != nil {
				return notFound(query.Word, err)
			}
			return cli.WriteNeighbors(cmd.OutOrStdout(), cli.NeighborsOutput{
				Word:      query.Word,
				Prototype: query.Prototype,
				Neighbors: neighbors,
			}, format)
		},
	}
	cmd.Flags().IntVarP(&prototype, "prototype", "p", 1, "prototype to search")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of neighbours (default from config)")
	cmd.Flags().StringVar(&basename, "model-basename", "", "model basename")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newHashCmd(a *app) *cobra.Command {
	var (
		subwords bool
		nwords   int
		minn     int
		maxn     int
		bucket   uint32
		output   string
	)
	cmd := &cobra.Command{
		Use:   "hash <string...>",
		Short: "Print the 32-bit FNV-1a hash of each string, optionally with its subword buckets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg := a.cfg.Hash
			if cmd.Flags().Changed("minn") {
				cfg.MinN = minn
			}
			if cmd.Flags().Changed("maxn") {
				cfg.MaxN = maxn
			}
			if cmd.Flags().Changed("bucket") {
				cfg.Bucket = bucket
			}
			results := make([]cli.HashOutput, 0, len(args))
			for _, s := range args {
				out := cli.HashOutput{Input: s, Hash: fnvhash.Hash(s)}
				if subwords {
					if out.Subwords, err = fnvhash.Subwords(s, nwords, cfg); err != nil {
						return err
					}
				}
				results = append(results, out)
			}
			return cli.WriteHashes(cmd.OutOrStdout(), results, format)
		},
	}
	cmd.Flags().BoolVar(&subwords, "subwords", false, "also list character n-grams with their buckets")
	cmd.Flags().IntVar(&nwords, "nwords", 0, "vocabulary size added to buckets to give input-matrix rows")
	cmd.Flags().IntVar(&minn, "minn", 0, "minimum n-gram length (default from config)")
	cmd.Flags().IntVar(&maxn, "maxn", 0, "maximum n-gram length (default from config)")
	cmd.Flags().Uint32Var(&bucket, "bucket", 0, "number of hash buckets (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
