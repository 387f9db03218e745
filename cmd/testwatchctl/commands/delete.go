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
	"github.com/spf13/cobra"

	testwatchclient "github.com/carv-ics-forth/testwatch/pkg/client"

	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
)

// NewDeleteCmd removes a TestSuite, mirroring the verb the teacher's
// commands/delete.go exposes for its own resources.
func NewDeleteCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Delete a TestSuite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			mgmt := testwatchclient.NewTestSuiteManagementClient(c)

			if err := mgmt.DeleteTest(namespace, args[0]); err != nil {
				return err
			}

			ui.Success("deleted", namespace+"/"+args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "namespace of the TestSuite")

	return cmd
}
