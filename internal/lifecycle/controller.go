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

// Package lifecycle implements the per-event handlers of spec.md §4.E:
// create, delete, resume-on-restart, suspend-field-change and update, wired
// onto a single controller-runtime Reconciler. Grounded on the teacher's
// controllers/chaos and controllers/common, generalized from frisbee's
// multi-phase Chaos lifecycle to a single CronJob-owning TestSuite.
package lifecycle

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	r3diff "github.com/r3labs/diff/v3"
	"github.com/pkg/errors"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"k8s.io/client-go/tools/reference"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/hub"
	"github.com/carv-ics-forth/testwatch/internal/registry"
	"github.com/carv-ics-forth/testwatch/internal/scheduler"
	"github.com/carv-ics-forth/testwatch/internal/subscribers"
)

const (
	annotationCronJob    = v1alpha1.GroupName + "/cronjob"
	annotationWorkerTask = v1alpha1.GroupName + "/worker-task-id"
	finalizerName        = v1alpha1.GroupName + "/finalizer"
)

// Helpers mirroring the teacher's controllers/common result constructors
// (Stop/RequeueAfter/RequeueWithError), kept local rather than imported
// since controllers/common.Reconciler is tied to frisbee's own
// ReconcileStatusAware phase accessor, which TestSuiteStatus does not
// implement.
func stop() (ctrl.Result, error)                        { return ctrl.Result{}, nil }
func requeueAfter(d time.Duration) (ctrl.Result, error) { return ctrl.Result{RequeueAfter: d}, nil }
func requeueWithError(err error) (ctrl.Result, error)   { return ctrl.Result{}, err }

// Controller reconciles TestSuite objects (spec.md §4.E).
type Controller struct {
	ctrl.Manager
	logr.Logger

	Registry  *registry.Registry
	Hub       *hub.Hub
	Scheduler *scheduler.Scheduler
	Validator Validator
	Annotator subscribers.Annotator // may be nil

	Recorder record.EventRecorder

	WorkerImage   string
	ControllerURL string
}

var _ subscribers.EventPoster = (*Controller)(nil)
var _ subscribers.StatusWriter = (*Controller)(nil)

// Reconcile is the single controller-runtime entry point. It maps the
// per-event handlers of spec.md §4.E onto one idempotent reconcile pass:
// Registry membership plus the annotations persisted by Create distinguish
// which of create / resume-on-restart / suspend-change / update applies.
func (r *Controller) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	var obj v1alpha1.TestSuite

	if err := r.GetClient().Get(ctx, req.NamespacedName, &obj); err != nil {
		if apierrors.IsNotFound(err) {
			return stop()
		}
		return requeueWithError(err)
	}

	key := registry.Key{Namespace: obj.Namespace, Name: obj.Name}

	if !obj.GetDeletionTimestamp().IsZero() {
		return r.reconcileDelete(ctx, &obj, key)
	}

	if controllerutil.AddFinalizer(&obj, finalizerName) {
		r.Info("AddFinalizer", "obj", client.ObjectKeyFromObject(&obj))
		if err := r.GetClient().Update(ctx, &obj); err != nil {
			return requeueWithError(err)
		}
		return stop()
	}

	if err := r.Validator.Validate(&obj.Spec); err != nil {
		return r.reconcileInvalid(ctx, &obj, err)
	}

	if rec, ok := r.Registry.Get(key); ok {
		return r.reconcileExisting(ctx, &obj, rec)
	}

	if jobName, execID, ok := readIdentifierAnnotations(&obj); ok {
		return r.reconcileResume(ctx, &obj, key, jobName, execID)
	}

	return r.reconcileCreate(ctx, &obj, key)
}

// reconcileCreate is spec.md §4.E "Create".
func (r *Controller) reconcileCreate(ctx context.Context, obj *v1alpha1.TestSuite, key registry.Key) (ctrl.Result, error) {
	ref, err := reference.GetReference(r.GetClient().Scheme(), obj)
	if err != nil {
		return requeueWithError(errors.Wrap(err, "get object reference"))
	}

	rec := &registry.Record{
		Key:          key,
		Plural:       "testsuites",
		JobName:      JobName(key),
		ExecutionID:  ExecutionID(key),
		SpecSnapshot: obj.Spec,
		Schedule:     obj.Spec.Schedule,
		Phase:        v1alpha1.PhasePending,
		ObjectRef:    ref,
		CreatedAt:    time.Now(),
	}

	if err := r.Registry.Insert(rec); err != nil {
		// Duplicate-insert on a fresh Create is a programming-invariant
		// violation (spec.md §7 taxonomy (f)).
		panic(errors.Wrap(err, "duplicate insert in Create"))
	}

	cj, err := BuildCronJob(rec, r.WorkerImage, r.ControllerURL)
	if err != nil {
		return requeueWithError(err)
	}

	if err := controllerutil.SetControllerReference(obj, cj, r.GetClient().Scheme()); err != nil {
		return requeueWithError(errors.Wrap(err, "set controller reference"))
	}

	if err := r.GetClient().Create(ctx, cj); err != nil && !apierrors.IsAlreadyExists(err) {
		r.Registry.Remove(key)
		return requeueWithError(errors.Wrap(err, "create cronjob"))
	}

	if !obj.Spec.IsSuspended() {
		r.wireSubscribers(rec)
	}

	if obj.Annotations == nil {
		obj.Annotations = make(map[string]string, 2)
	}
	obj.Annotations[annotationCronJob] = rec.JobName
	obj.Annotations[annotationWorkerTask] = rec.ExecutionID
	if err := r.GetClient().Update(ctx, obj); err != nil {
		return requeueAfter(time.Second)
	}

	phase := v1alpha1.PhaseActive
	if obj.Spec.IsSuspended() {
		phase = v1alpha1.PhaseSuspended
	}
	rec.Phase = phase
	r.Registry.Update(rec)

	r.Recorder.Eventf(obj, corev1.EventTypeNormal, "CronJobCreated", "created cronjob %s", rec.JobName)

	return r.writeStatus(ctx, rec, obj, phase)
}

// reconcileResume is spec.md §4.E "Resume-on-restart".
func (r *Controller) reconcileResume(ctx context.Context, obj *v1alpha1.TestSuite, key registry.Key, jobName, execID string) (ctrl.Result, error) {
	ref, err := reference.GetReference(r.GetClient().Scheme(), obj)
	if err != nil {
		return requeueWithError(errors.Wrap(err, "get object reference"))
	}

	phase := obj.Status.Phase
	if phase == "" {
		phase = v1alpha1.PhaseActive
	}

	rec := &registry.Record{
		Key:          key,
		Plural:       "testsuites",
		JobName:      jobName,
		ExecutionID:  execID,
		SpecSnapshot: obj.Spec,
		Schedule:     obj.Spec.Schedule,
		Phase:        phase,
		LastStatus:   obj.Status,
		ObjectRef:    ref,
		CreatedAt:    time.Now(),
	}

	if err := r.Registry.Insert(rec); err != nil {
		// Benign on the resume path (spec.md §4.C): another worker beat us
		// to it for the same key.
		r.Info("resume observed already-registered resource", "obj", key.String())
		return stop()
	}

	if phase != v1alpha1.PhaseSuspended {
		r.wireSubscribers(rec)
	}

	r.Info("resumed on restart", "obj", key.String(), "jobName", jobName, "executionID", execID, "phase", phase)

	return stop()
}

// reconcileExisting dispatches to suspend-change or update handling for a
// resource already tracked in the Registry.
func (r *Controller) reconcileExisting(ctx context.Context, obj *v1alpha1.TestSuite, rec *registry.Record) (ctrl.Result, error) {
	wantSuspended := obj.Spec.IsSuspended()
	isSuspended := rec.Phase == v1alpha1.PhaseSuspended

	if wantSuspended != isSuspended {
		return r.reconcileSuspendChange(ctx, obj, rec, wantSuspended)
	}

	return r.reconcileUpdate(ctx, obj, rec)
}

// reconcileSuspendChange is spec.md §4.E "Suspend-field change".
func (r *Controller) reconcileSuspendChange(ctx context.Context, obj *v1alpha1.TestSuite, rec *registry.Record, suspend bool) (ctrl.Result, error) {
	var cj batchv1.CronJob
	if err := r.GetClient().Get(ctx, types.NamespacedName{Namespace: rec.Key.Namespace, Name: rec.JobName}, &cj); err != nil {
		return requeueWithError(errors.Wrap(err, "get cronjob"))
	}
	PatchSuspend(&cj, suspend)
	if err := r.GetClient().Update(ctx, &cj); err != nil {
		return requeueWithError(errors.Wrap(err, "patch cronjob suspend"))
	}

	if suspend {
		r.Hub.RemoveAll(rec.ExecutionID)
		rec.Phase = v1alpha1.PhaseSuspended
		r.Registry.Update(rec)
		r.Recorder.Event(obj, corev1.EventTypeNormal, "TestSuiteSuspended", "test suite suspended")
	} else {
		r.wireSubscribers(rec)
		rec.Phase = v1alpha1.PhaseActive
		r.Registry.Update(rec)
		r.Recorder.Event(obj, corev1.EventTypeNormal, "TestSuiteResumed", "test suite resumed")
	}

	return r.writeStatus(ctx, rec, obj, rec.Phase)
}

// reconcileUpdate is spec.md §4.E "Update", expanded per SPEC_FULL.md §9: a
// changed schedule re-arms the watchdog (and the CronJob) instead of the
// pure no-op spec.md originally specified; any other spec drift only
// refreshes the stored snapshot.
func (r *Controller) reconcileUpdate(ctx context.Context, obj *v1alpha1.TestSuite, rec *registry.Record) (ctrl.Result, error) {
	changelog, err := r3diff.Diff(rec.SpecSnapshot, obj.Spec)
	if err != nil {
		return requeueWithError(errors.Wrap(err, "diff spec snapshot"))
	}

	scheduleChanged := false
	for _, c := range changelog {
		if len(c.Path) > 0 && c.Path[0] == "Schedule" {
			scheduleChanged = true
			break
		}
	}

	rec.SpecSnapshot = obj.Spec

	if !scheduleChanged {
		r.Registry.Update(rec)
		return stop()
	}

	rec.Schedule = obj.Spec.Schedule
	r.Registry.Update(rec)

	var cj batchv1.CronJob
	if err := r.GetClient().Get(ctx, types.NamespacedName{Namespace: rec.Key.Namespace, Name: rec.JobName}, &cj); err != nil {
		return requeueWithError(errors.Wrap(err, "get cronjob"))
	}
	cj.Spec.Schedule = rec.Schedule
	if err := r.GetClient().Update(ctx, &cj); err != nil {
		return requeueWithError(errors.Wrap(err, "patch cronjob schedule"))
	}

	if rec.Phase != v1alpha1.PhaseSuspended {
		r.Hub.RemoveAll(rec.ExecutionID)
		r.wireSubscribers(rec)
	}

	r.Recorder.Eventf(obj, corev1.EventTypeNormal, "TestSuiteRescheduled", "schedule changed to %q", rec.Schedule)

	return stop()
}

// reconcileInvalid is spec.md §4.E Create step 1's failure branch, also
// applied on every reconcile of an already-Failed resource: the user must
// edit the resource (spec.md §7 "Phase Failed is terminal without user
// intervention").
func (r *Controller) reconcileInvalid(ctx context.Context, obj *v1alpha1.TestSuite, cause error) (ctrl.Result, error) {
	r.Recorder.Event(obj, corev1.EventTypeWarning, "InvalidSpec", cause.Error())

	status := obj.Status
	status.Phase = v1alpha1.PhaseFailed

	obj.Status = status
	if err := r.GetClient().Status().Update(ctx, obj); err != nil {
		return requeueAfter(time.Second)
	}

	return stop()
}

// reconcileDelete is spec.md §4.E "Delete".
func (r *Controller) reconcileDelete(ctx context.Context, obj *v1alpha1.TestSuite, key registry.Key) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(obj, finalizerName) {
		return stop()
	}

	if rec, ok := r.Registry.Get(key); ok {
		r.Hub.RemoveAll(rec.ExecutionID)
		r.Registry.Remove(key)
	}

	controllerutil.RemoveFinalizer(obj, finalizerName)
	if err := r.GetClient().Update(ctx, obj); err != nil {
		return requeueAfter(time.Second)
	}

	return stop()
}

// wireSubscribers constructs a fresh Status-Updater and Deadline-Watchdog
// and registers both with the Hub under rec.ExecutionID (spec.md §4.E
// Create step 4, reused verbatim by resume and suspend-resume).
func (r *Controller) wireSubscribers(rec *registry.Record) {
	updater := subscribers.NewStatusUpdater(rec.Key, rec.LastStatus, r, r, r.Annotator, r.Logger.WithName("status-updater"))
	r.Hub.Add(rec.ExecutionID, updater)

	watchdog, err := subscribers.NewWatchdog(rec.Key, rec.ExecutionID, rec.Schedule, r.Scheduler, r, r.Logger.WithName("watchdog"))
	if err != nil {
		// The schedule was already accepted by the Validator, so a parse
		// failure here is a programming-invariant violation (spec.md §7 (f)).
		panic(errors.Wrap(err, "construct watchdog with a previously-validated schedule"))
	}
	r.Hub.Add(rec.ExecutionID, watchdog)
}

// writeStatus applies status (phase plus whatever the Registry's LastStatus
// already carries) both to the live object and to r's own StatusWriter path,
// keeping obj.Status and rec.LastStatus from drifting apart.
func (r *Controller) writeStatus(ctx context.Context, rec *registry.Record, obj *v1alpha1.TestSuite, phase v1alpha1.Phase) (ctrl.Result, error) {
	status := rec.LastStatus
	status.Phase = phase
	status.Suspended = phase == v1alpha1.PhaseSuspended

	rec.LastStatus = status
	r.Registry.Update(rec)

	obj.Status = status
	if err := r.GetClient().Status().Update(ctx, obj); err != nil {
		return requeueAfter(time.Second)
	}

	return stop()
}

// PostEvent implements subscribers.EventPoster.
func (r *Controller) PostEvent(_ context.Context, key registry.Key, eventType, reason, message string) {
	rec, ok := r.Registry.Get(key)
	if !ok || rec.ObjectRef == nil {
		return
	}
	r.Recorder.Event(rec.ObjectRef, eventType, reason, message)
}

// ApplyStatus implements subscribers.StatusWriter: re-fetches the live
// object (Status-Updater callbacks run outside of Reconcile, so there is no
// in-hand copy to patch) and writes the computed status.
func (r *Controller) ApplyStatus(ctx context.Context, key registry.Key, status v1alpha1.TestSuiteStatus) error {
	var obj v1alpha1.TestSuite
	if err := r.GetClient().Get(ctx, types.NamespacedName{Namespace: key.Namespace, Name: key.Name}, &obj); err != nil {
		return errors.Wrap(err, "get object for status patch")
	}

	obj.Status = status

	if err := r.GetClient().Status().Update(ctx, &obj); err != nil {
		return errors.Wrap(err, "update status")
	}

	if rec, ok := r.Registry.Get(key); ok {
		rec.LastStatus = status
		r.Registry.Update(rec)
	}

	return nil
}

func readIdentifierAnnotations(obj *v1alpha1.TestSuite) (jobName, execID string, ok bool) {
	jobName, hasJob := obj.Annotations[annotationCronJob]
	execID, hasExec := obj.Annotations[annotationWorkerTask]
	return jobName, execID, hasJob && hasExec
}

// SetupWithManager registers the Controller with mgr, owning the CronJobs it
// creates (spec.md §6.2) so their events trigger a reconcile of the parent.
func (r *Controller) SetupWithManager(mgr ctrl.Manager) error {
	r.Manager = mgr
	r.Recorder = mgr.GetEventRecorderFor("testwatch-controller")

	return ctrl.NewControllerManagedBy(mgr).
		Named("testsuite").
		For(&v1alpha1.TestSuite{}).
		Owns(&batchv1.CronJob{}).
		Complete(r)
}
