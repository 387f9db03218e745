/*
Copyright 2022 ICS-FORTH.

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

// Package client wraps a controller-runtime client with the TestSuite-level
// operations testwatchctl needs, the same role the teacher's
// pkg/client/management.go plays for its namespace-per-test Scenario model.
// There is no per-test namespace here — a TestSuite is a single namespaced
// object — so Get/Delete address one TestSuite by namespace and name, and
// List takes an optional label selector, instead of the teacher's "one
// namespace per test" fan-out.
package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
)

// TestSuiteManagementClient is the set of TestSuite operations shared by
// testwatchctl's command tree, so individual commands don't each re-derive
// list/get/delete boilerplate against the raw controller-runtime client.
type TestSuiteManagementClient struct {
	client client.Client
}

// NewTestSuiteManagementClient wraps an existing controller-runtime client.
func NewTestSuiteManagementClient(c client.Client) TestSuiteManagementClient {
	return TestSuiteManagementClient{client: c}
}

// GetTest returns the single TestSuite named id in namespace, or nil if none exists.
func (c TestSuiteManagementClient) GetTest(namespace, id string) (*v1alpha1.TestSuite, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var obj v1alpha1.TestSuite
	if err := c.client.Get(ctx, client.ObjectKey{Namespace: namespace, Name: id}, &obj); err != nil {
		if client.IgnoreNotFound(err) == nil {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "getting TestSuite %s/%s", namespace, id)
	}

	return &obj, nil
}

// ListTests lists TestSuite resources in namespace matching selector
// ("" lists everything). An empty namespace lists across the whole cluster.
func (c TestSuiteManagementClient) ListTests(namespace, selector string) (v1alpha1.TestSuiteList, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var list v1alpha1.TestSuiteList

	opts := []client.ListOption{}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}
	if selector != "" {
		set, err := labels.ConvertSelectorToLabelsMap(selector)
		if err != nil {
			return list, errors.Wrap(err, "invalid selector")
		}
		opts = append(opts, client.MatchingLabelsSelector{Selector: labels.SelectorFromValidatedSet(set)})
	}

	if err := c.client.List(ctx, &list, opts...); err != nil {
		return list, errors.Wrap(err, "listing TestSuite resources")
	}

	return list, nil
}

// DeleteTest deletes the TestSuite named id in namespace.
func (c TestSuiteManagementClient) DeleteTest(namespace, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if id == "" {
		return errors.New("test name is required")
	}

	var obj v1alpha1.TestSuite
	obj.SetNamespace(namespace)
	obj.SetName(id)

	if err := c.client.Delete(ctx, &obj); err != nil {
		return errors.Wrapf(err, "deleting TestSuite %s/%s", namespace, id)
	}

	return nil
}
