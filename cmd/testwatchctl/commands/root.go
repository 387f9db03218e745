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

// Package commands is the command tree for testwatchctl, adapted from the
// teacher's cmd/kubectl-frisbee/commands layout: one file per verb, a
// shared root that wires global flags, verb subcommands whose RunE closures
// read their own local flag variables.
package commands

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/kube"
	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
)

// NewRootCmd builds the testwatchctl command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool
	var kubeconfig string

	cmd := &cobra.Command{
		Use:   "testwatchctl",
		Short: "Inspect and operate TestSuite resources",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	cmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "path to a kubeconfig file (defaults to $KUBECONFIG)")

	cmd.AddCommand(
		NewGetCmd(),
		NewDescribeCmd(),
		NewSuspendCmd(),
		NewResumeCmd(),
		NewValidateCmd(),
		NewDeleteCmd(),
	)

	return cmd
}

func clientFromFlags(cmd *cobra.Command) (client.Client, error) {
	kubeconfig, err := cmd.Flags().GetString("kubeconfig")
	if err != nil {
		return nil, err
	}
	return kube.NewClient(kubeconfig)
}
