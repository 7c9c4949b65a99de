// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mipsched/mipsched/linear"
)

func (c *CLI) newExportCmd() *cobra.Command {
	var (
		mf        modelFlags
		format    string
		obfuscate bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the model of an instance in LP or JSON format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := mf.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			m, err := mf.buildModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			data, err := m.Data()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "lp":
				lp, err := linear.ExportModelAsLpFormat(data, linear.ExportOptions{Obfuscate: obfuscate})
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, lp)
				return err
			case "json":
				b, err := linear.ExportModelAsJSON(data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}
			return fmt.Errorf("unknown format %q, want lp or json", format)
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "lp", "Output format: lp or json")
	cmd.Flags().BoolVar(&obfuscate, "obfuscate", false, "Replace names with V<i> and C<i> in LP output")
	return cmd
}
