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

package lifecycle

import (
	"net"
	"strings"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
)

// Validator is the injected predicate of spec.md §4.E step 1: CRD field
// validation itself is out of scope for this repo (spec.md §1), so the
// Lifecycle Controller is handed a Validator rather than hand-rolling one.
type Validator interface {
	Validate(spec *v1alpha1.TestSuiteSpec) error
}

// DefaultValidator implements the validation rules spec.md §6.1 requires of
// the injected predicate: a parseable cron schedule, unique non-empty case
// names, exactly one assertion key per case, and — where the case names an
// IP-block assertion — a parseable CIDR (adapted from the teacher's
// pkg/netutils IP helpers, repurposed from chaos-injection address parsing
// to assertion-field validation).
type DefaultValidator struct{}

func (DefaultValidator) Validate(spec *v1alpha1.TestSuiteSpec) error {
	if strings.TrimSpace(spec.Schedule) == "" {
		return errors.New("schedule is required")
	}

	if _, err := cron.ParseStandard(spec.Schedule); err != nil {
		return errors.Wrapf(err, "unparseable schedule %q", spec.Schedule)
	}

	seen := make(map[string]struct{}, len(spec.NetworkValidations))
	var duplicates []string

	for _, nv := range spec.NetworkValidations {
		if strings.TrimSpace(nv.Name) == "" {
			return errors.New("networkValidations entries must have a name")
		}

		if _, ok := seen[nv.Name]; ok {
			duplicates = append(duplicates, nv.Name)
		}
		seen[nv.Name] = struct{}{}

		if err := validateExactlyOneAssertion(nv); err != nil {
			return errors.Wrapf(err, "networkValidations[%s]", nv.Name)
		}

		if nv.TestIPBlock != nil {
			if _, _, err := net.ParseCIDR(nv.TestIPBlock.CIDR); err != nil {
				return errors.Wrapf(err, "networkValidations[%s].testIpBlock.cidr", nv.Name)
			}
		}
	}

	if len(duplicates) > 0 {
		return errors.Errorf("duplicate networkValidations name(s): %s", strings.Join(duplicates, ", "))
	}

	return nil
}

func validateExactlyOneAssertion(nv v1alpha1.NetworkValidation) error {
	count := 0
	if nv.TestDNSResolution != nil {
		count++
	}
	if nv.TestIPBlock != nil {
		count++
	}
	if nv.TestExactDestination != nil {
		count++
	}

	switch count {
	case 0:
		return errors.New("must specify exactly one assertion, none given")
	case 1:
		return nil
	default:
		return errors.Errorf("must specify exactly one assertion, %d given", count)
	}
}
