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
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/types"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/cmd/testwatchctl/ui"
)

// NewSuspendCmd and NewResumeCmd flip .spec.suspend, letting an operator
// drive the suspend-field-change path of spec.md §4.E from the CLI instead
// of hand-editing the resource.
func NewSuspendCmd() *cobra.Command {
	return newSuspendToggleCmd("suspend", true)
}

func NewResumeCmd() *cobra.Command {
	return newSuspendToggleCmd("resume", false)
}

func newSuspendToggleCmd(use string, suspend bool) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: use + " a TestSuite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}

			key := types.NamespacedName{Namespace: namespace, Name: args[0]}

			var obj v1alpha1.TestSuite
			if err := c.Get(cmd.Context(), key, &obj); err != nil {
				return errors.Wrapf(err, "getting TestSuite %s", key)
			}

			obj.Spec.Suspend = &suspend

			if err := c.Update(cmd.Context(), &obj); err != nil {
				return errors.Wrapf(err, "updating TestSuite %s", key)
			}

			ui.Success(use+"ed", key.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "namespace of the TestSuite")

	return cmd
}
