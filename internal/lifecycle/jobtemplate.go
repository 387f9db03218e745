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
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/registry"
)

// a package-level singleton, same pattern the teacher uses for its template
// FuncMap (controllers/template/helpers.GenerateSpecFromScheme): building
// sprig's function map is comparatively expensive, so build it once.
var sprigFuncMap = sprig.TxtFuncMap()

var descriptionTemplate = template.Must(
	template.New("description").
		Funcs(sprigFuncMap).
		Parse(`Test suite {{ .Name | quote }}, scheduled {{ .Schedule | quote }}, {{ len .Cases }} case(s).`),
)

type descriptionInputs struct {
	Name     string
	Schedule string
	Cases    []v1alpha1.NetworkValidation
}

func renderDescription(suiteName, schedule string, cases []v1alpha1.NetworkValidation) (string, error) {
	var out strings.Builder

	if err := descriptionTemplate.Execute(&out, descriptionInputs{Name: suiteName, Schedule: schedule, Cases: cases}); err != nil {
		return "", errors.Wrap(err, "render description")
	}

	return out.String(), nil
}

const (
	envWorkerTaskID        = "WORKER_TASK_ID"
	envWorkerExecutionSpec = "WORKER_TASK_EXECUTION_CONFIG"
	envControllerURL       = "WORKER_CONTROLLER_OPERATOR_URL"
	envWorkerKind          = "WORKER_TEST_SUITE_KIND"
)

var (
	backoffLimitZero               int32 = 0
	successfulJobsHistoryLimitTwo  int32 = 2
	failedJobsHistoryLimitFour     int32 = 4
	ttlSecondsAfterFinishedDefault int32 = 18000
)

// BuildCronJob constructs the CronJob child object of spec.md §6.2 for rec.
// workerImage and controllerURL come from injected config
// (internal/config), not hard-coded, matching the teacher's practice of
// threading configuration.Global through object construction instead of
// literal constants.
func BuildCronJob(rec *registry.Record, workerImage, controllerURL string) (*batchv1.CronJob, error) {
	specYAML, err := yaml.Marshal(rec.SpecSnapshot)
	if err != nil {
		return nil, errors.Wrap(err, "marshal spec snapshot")
	}

	description, err := renderDescription(rec.Key.Name, rec.Schedule, rec.SpecSnapshot.NetworkValidations)
	if err != nil {
		return nil, err
	}

	suspend := rec.Phase == v1alpha1.PhaseSuspended

	cj := &batchv1.CronJob{
		ObjectMeta: metav1.ObjectMeta{
			Name:      rec.JobName,
			Namespace: rec.Key.Namespace,
			Annotations: map[string]string{
				v1alpha1.GroupName + "/description": description,
			},
		},
		Spec: batchv1.CronJobSpec{
			Schedule:                   rec.Schedule,
			ConcurrencyPolicy:          batchv1.ForbidConcurrent,
			SuccessfulJobsHistoryLimit: &successfulJobsHistoryLimitTwo,
			FailedJobsHistoryLimit:     &failedJobsHistoryLimitFour,
			Suspend:                    &suspend,
			JobTemplate: batchv1.JobTemplateSpec{
				Spec: batchv1.JobSpec{
					BackoffLimit:            &backoffLimitZero,
					TTLSecondsAfterFinished: &ttlSecondsAfterFinishedDefault,
					Template: corev1.PodTemplateSpec{
						Spec: corev1.PodSpec{
							RestartPolicy: corev1.RestartPolicyNever,
							Containers: []corev1.Container{
								{
									Name:  "worker",
									Image: workerImage,
									Env: []corev1.EnvVar{
										{Name: envWorkerTaskID, Value: rec.ExecutionID},
										{Name: envWorkerExecutionSpec, Value: string(specYAML)},
										{Name: envControllerURL, Value: controllerURL},
										{Name: envWorkerKind, Value: "TestSuite"},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	return cj, nil
}

// PatchSuspend mutates cj in place to reflect suspended, for the
// suspend-field-change handler (spec.md §4.E).
func PatchSuspend(cj *batchv1.CronJob, suspended bool) {
	cj.Spec.Suspend = &suspended
}
