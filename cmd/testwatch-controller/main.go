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

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dimiro1/banner"
	"github.com/go-logr/zapr"
	"github.com/grafana-tools/sdk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	k8sruntime "k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/config"
	"github.com/carv-ics-forth/testwatch/internal/hub"
	"github.com/carv-ics-forth/testwatch/internal/lifecycle"
	"github.com/carv-ics-forth/testwatch/internal/registry"
	"github.com/carv-ics-forth/testwatch/internal/scheduler"
	"github.com/carv-ics-forth/testwatch/internal/telemetry"
	"github.com/carv-ics-forth/testwatch/internal/transport/grpcserver"
	"github.com/carv-ics-forth/testwatch/internal/transport/httpserver"
)

const bannerTemplate = `{{ .AnsiColor.BrightCyan }}
 _            _                 _       _
| |_ ___  ___| |___      ____ _| |_ ___| |__
| __/ _ \/ __| __\ \ /\ / / _' | __/ __| '_ \
| ||  __/\__ \ |_ \ V  V / (_| | || (__| | | |
 \__\___||___/\__| \_/\_/ \__,_|\__\___|_| |_|
{{ .AnsiColor.Default }}TestSuite operator
`

func main() {
	root := &cobra.Command{
		Use:   "testwatch-controller",
		Short: "Runs the testwatch TestSuite operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	banner.Init(os.Stdout, true, true, strings.NewReader(bannerTemplate))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zapLog, err := buildZapLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer zapLog.Sync() //nolint:errcheck

	log := zapr.NewLogger(zapLog)
	ctrl.SetLogger(log)

	scheme, err := buildScheme()
	if err != nil {
		return err
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{Scheme: scheme})
	if err != nil {
		return err
	}

	sched := scheduler.New(log.WithName("scheduler"))
	h := hub.New(log.WithName("hub"))
	reg := registry.New()

	var annotator *telemetry.Annotator
	if grafanaAddr := os.Getenv("GRAFANA_ADDRESS"); grafanaAddr != "" {
		client, err := sdk.NewClient(grafanaAddr, os.Getenv("GRAFANA_API_KEY"), sdk.DefaultHTTPClient)
		if err != nil {
			log.Error(err, "grafana client disabled")
		} else {
			annotator = telemetry.NewAnnotator(client, logrus.StandardLogger())
		}
	}

	controller := &lifecycle.Controller{
		Logger:        log.WithName("testsuite"),
		Registry:      reg,
		Hub:           h,
		Scheduler:     sched,
		Validator:     lifecycle.DefaultValidator{},
		Annotator:     annotator,
		WorkerImage:   cfg.WorkerDockerImage,
		ControllerURL: cfg.ExposedControllerGRPCAddress,
	}
	if err := controller.SetupWithManager(mgr); err != nil {
		return err
	}

	grpcSrv := grpcserver.New(cfg.GRPCBindAddress, h, log.WithName("grpc"))
	httpSrv := httpserver.New(cfg.HTTPBindAddress, sched, log.WithName("http"))

	ctx := ctrl.SetupSignalHandler()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		sched.Run()
		return nil
	})
	group.Go(func() error {
		return grpcSrv.Serve()
	})
	group.Go(func() error {
		return httpSrv.Serve()
	})
	group.Go(func() error {
		return mgr.Start(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		sched.Stop()
		grpcSrv.Stop()
		return httpSrv.Shutdown(context.Background())
	})

	return group.Wait()
}

func buildZapLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zapLevel

	return zapCfg.Build()
}

func buildScheme() (*k8sruntime.Scheme, error) {
	scheme := k8sruntime.NewScheme()
	if err := corev1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := batchv1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return scheme, nil
}
