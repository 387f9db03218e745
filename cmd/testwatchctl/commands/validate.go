/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package commands

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
	"github.com/carv-ics-forth/testwatch/internal/lifecycle"
)

// NewValidateCmd runs the same validation the controller applies on every
// reconcile (internal/lifecycle.DefaultValidator) offline, against a YAML
// file on disk — adapted from the teacher's
// commands/tests/validate.go dry-run flow, minus the Helm/examples-tree
// branches that have no equivalent here (a TestSuite manifest is a single
// file, not a chart).
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a TestSuite manifest without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			raw, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}

			var obj v1alpha1.TestSuite
			if err := yaml.Unmarshal(raw, &obj); err != nil {
				return errors.Wrapf(err, "parsing %s", path)
			}

			validator := lifecycle.DefaultValidator{}
			if err := validator.Validate(&obj.Spec); err != nil {
				ui.Failf("%s: %s", filepath.Base(path), err)
			}

			ui.Success("validated:", path)
			return nil
		},
	}

	return cmd
}
