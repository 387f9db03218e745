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
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/types"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
	"github.com/carv-ics-forth/testwatch/pkg/grafana"
)

// NewDescribeCmd prints the full status of a single TestSuite, including its
// per-case results, in the "== Section ==" style the teacher's
// commands/tests/inspect.go uses for its overview sections.
func NewDescribeCmd() *cobra.Command {
	var namespace string
	var grafanaAddress, grafanaDashboard string

	cmd := &cobra.Command{
		Use:     "describe <name>",
		Aliases: []string{"d"},
		Short:   "Show detailed status for one TestSuite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			var obj v1alpha1.TestSuite
			if err := c.Get(cmd.Context(), types.NamespacedName{Namespace: namespace, Name: args[0]}, &obj); err != nil {
				return errors.Wrapf(err, "getting TestSuite %s/%s", namespace, args[0])
			}

			ui.NL()
			ui.Success("== Overview ==")
			fmt.Printf("Name:      %s\n", obj.Name)
			fmt.Printf("Namespace: %s\n", obj.Namespace)
			fmt.Printf("Schedule:  %s\n", obj.Spec.Schedule)
			fmt.Printf("Suspended: %v\n", obj.Spec.IsSuspended())
			fmt.Printf("Cases:     %d\n", len(obj.Spec.NetworkValidations))

			ui.NL()
			ui.Success("== Status ==")
			fmt.Printf("Phase:              %s\n", obj.Status.Phase)
			fmt.Printf("TestExecutionStatus: %s\n", obj.Status.TestExecutionStatus)
			fmt.Printf("PassingCount:       %s\n", obj.Status.PassingCount)
			fmt.Printf("LastExecutionTime:  %s\n", obj.Status.LastExecutionTime)
			fmt.Printf("LastSucceededTime:  %s\n", obj.Status.LastSucceededTime)
			fmt.Printf("LastExecutionErrorTime: %s\n", obj.Status.LastExecutionErrorTime)

			if len(obj.Status.TestCases) > 0 {
				ui.NL()
				ui.Success("== Test Cases ==")

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Name", "Status", "ExecutionTime", "Error"})
				for _, tc := range obj.Status.TestCases {
					table.Append([]string{tc.Name, string(tc.Status), tc.ExecutionTime, tc.Error})
				}
				table.Render()
			}

			if grafanaAddress != "" {
				window := grafana.TimeRange{From: time.Now().Add(-24 * time.Hour), To: time.Now()}

				ui.NL()
				ui.Info("Dashboard (last 24h):", window.DashboardURL(grafanaAddress, grafanaDashboard))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "namespace of the TestSuite")
	cmd.Flags().StringVar(&grafanaAddress, "grafana", "", "Grafana host:port to link a dashboard for")
	cmd.Flags().StringVar(&grafanaDashboard, "grafana-dashboard", "summary", "dashboard UID to link")

	return cmd
}
