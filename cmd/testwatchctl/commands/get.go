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

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
)

// NewGetCmd lists TestSuite resources as a table, mirroring the shape of the
// teacher's "get" command tree (cmd/kubectl-frisbee/commands/get.go) narrowed
// to this operator's single CRD.
func NewGetCmd() *cobra.Command {
	var namespace string
	var allNamespaces bool

	cmd := &cobra.Command{
		Use:     "get [name]",
		Aliases: []string{"g", "ls"},
		Short:   "List TestSuite resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			var list v1alpha1.TestSuiteList

			opts := []client.ListOption{}
			if !allNamespaces {
				opts = append(opts, client.InNamespace(namespace))
			}

			if err := c.List(cmd.Context(), &list, opts...); err != nil {
				return err
			}

			items := list.Items
			if len(args) == 1 {
				items = filterByName(items, args[0])
			}

			renderTestSuiteTable(items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "namespace to list from")
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "list across all namespaces")

	return cmd
}

func filterByName(items []v1alpha1.TestSuite, name string) []v1alpha1.TestSuite {
	out := make([]v1alpha1.TestSuite, 0, 1)
	for _, item := range items {
		if item.Name == name {
			out = append(out, item)
		}
	}
	return out
}

func renderTestSuiteTable(items []v1alpha1.TestSuite) {
	if len(items) == 0 {
		ui.Info("No TestSuite resources found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Namespace", "Name", "Schedule", "Phase", "Status", "Passing", "Suspended"})

	for _, item := range items {
		suspended := "false"
		if item.Spec.IsSuspended() {
			suspended = "true"
		}

		table.Append([]string{
			item.Namespace,
			item.Name,
			item.Spec.Schedule,
			string(item.Status.Phase),
			string(item.Status.TestExecutionStatus),
			item.Status.PassingCount,
			suspended,
		})
	}

	table.Render()
}
