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

// Package telemetry posts best-effort Grafana annotations on status
// transitions. Adapted from the teacher's pkg/grafana and
// controllers/common/lifecycle/annotations.go, generalized from "child
// object joined/left the experiment" point/range annotations to "test suite
// execution status changed".
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/grafana-tools/sdk"
	"github.com/sirupsen/logrus"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/registry"
)

// Annotator posts one point annotation per status transition. A nil *Client
// disables posting entirely, mirroring the teacher's
// "common.Globals.Annotator != nil" guard.
type Annotator struct {
	client *sdk.Client
	log    *logrus.Logger
}

// NewAnnotator wraps client. Pass a nil client to obtain a no-op Annotator
// (deployments without a configured Grafana address).
func NewAnnotator(client *sdk.Client, log *logrus.Logger) *Annotator {
	return &Annotator{client: client, log: log}
}

// AnnotateTransition implements subscribers.Annotator.
func (a *Annotator) AnnotateTransition(key registry.Key, from, to v1alpha1.ExecutionStatus, message string) {
	if a == nil || a.client == nil {
		return
	}

	ga := sdk.CreateAnnotationRequest{
		Time: time.Now().Unix() * 1000, // unix ts in ms, as the teacher's annotator does.
		Tags: []string{"testwatch", key.Namespace, key.Name, string(to)},
		Text: fmt.Sprintf("%s: %s -> %s (%s)", key.String(), from, to, message),
	}

	status, err := a.client.CreateAnnotation(context.Background(), ga)
	if err != nil {
		a.log.WithError(err).WithField("resource", key.String()).Warn("grafana annotation failed")
		return
	}

	a.log.WithField("resource", key.String()).WithField("id", status.ID).Debug("posted grafana annotation")
}
