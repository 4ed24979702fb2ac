// Copyright (c) the Argus Tools authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/analysis/models"
	"github.com/argus-tools/argus/analysis/taint"
)

func newCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse and verify taint models, then run the analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runCheck(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the yaml configuration (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config) error {
	logger := config.NewLogGroup(cfg)
	ctx := cmd.Context()

	var docs []models.Document
	for _, path := range cfg.ModelFiles {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read model file: %w", err)
		}
		docs = append(docs, models.Document{Path: path, Text: string(text)})
	}

	parsed, err := models.ParseDocuments(ctx, cfg, nil, docs)
	if err != nil {
		return err
	}
	if len(parsed.Errors) > 0 {
		if cfg.Verify {
			report, merr := jsoniter.MarshalIndent(parsed.Errors, "", "  ")
			if merr != nil {
				return fmt.Errorf("could not serialize error report: %w", merr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(report))
			return fmt.Errorf("model verification failed with %d error(s)", len(parsed.Errors))
		}
		for _, e := range parsed.Errors {
			logger.Warnf("%s", e)
		}
	}

	mapping := models.ApplyQueries(parsed.Models, parsed.Queries, parsed.Models.Callables(), nil)

	// Every modeled callable counts as body-less here; only the missing-flow
	// augmentation needs the distinction.
	prog := taint.NewProgram()
	for _, c := range mapping.Callables() {
		prog.AddStub(c.Name)
	}
	mapping = dataflow.PrepareMissingFlows(mapping, prog.Stubs(), cfg.FindMissingFlows())

	state := dataflow.NewAnalyzerState(cfg, logger, prog, prog, mapping)
	final, findings, err := taint.Analyze(ctx, state, prog.BuildCallGraph(), prog.Defs())
	if err != nil {
		return err
	}

	report := taint.NewReport(cfg, findings)
	report.Log(logger)
	if err := report.Dump(cfg); err != nil {
		return err
	}
	taint.ComputeStats(final).Log(logger)
	return nil
}
