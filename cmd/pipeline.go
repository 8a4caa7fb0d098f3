package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/config"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/loader"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/ThomasCrouzet/domainforge/internal/validate"
	"github.com/ThomasCrouzet/domainforge/internal/warnings"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// pipelineResult is everything the commands need after enrichment,
// validation and warning synthesis.
type pipelineResult struct {
	Spec        *model.Specification
	Context     hostinfo.Context
	Zones       map[string]addressing.Zone
	Host        hostinfo.Resources
	HostKnown   bool
	Allocations []resources.Allocation
	Errors      []string
	Warnings    []string
}

// loadConfig loads the tool config, applies persistent flags and picks the
// input path.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "check domainforge.yml"))
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if offline {
		cfg.Offline = true
	}
	if contextDir != "" {
		cfg.ContextDir = contextDir
	}
	return cfg, nil
}

func newProber(cfg *config.Config) hostinfo.Prober {
	if cfg.Offline {
		return hostinfo.StaticProber{}
	}
	return hostinfo.NewSystemProber(cfg.ProbeTimeout)
}

// runPipeline runs load, context, enrichment, validation and, when the
// spec is valid, warnings. Only loading and address exhaustion return an
// error; validation problems are in the result.
func runPipeline(ctx context.Context, cfg *config.Config, prober hostinfo.Prober) (*pipelineResult, error) {
	spec, overrides, err := loader.Load(cfg.Input)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load "+cfg.Input, err.Error(), "run 'domainforge init' to create a starter spec"))
		return nil, err
	}
	ui.StepDone("load", fmt.Sprintf("%s (%d domains, %d machines)", cfg.Input, len(spec.Domains), len(spec.Machines())))
	for _, o := range overrides {
		log.Warn().Str("domain", o.Domain).Str("file", o.File).Str("previous", o.Previous).Msg("domain overridden")
		ui.Warn(o.String())
	}

	res := &pipelineResult{Spec: spec}
	res.Context = hostinfo.ReadContext(os.DirFS(cfg.ContextDir))
	log.Debug().
		Int("nesting_level", res.Context.NestingLevel).
		Bool("vm_nested", res.Context.VMNested).
		Bool("relaxed", res.Context.Relaxed).
		Bool("known", res.Context.Known).
		Msg("context")

	zones, err := addressing.Enrich(spec)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Address assignment failed", err.Error(), "move machines to another domain or free addresses in .1-.99"))
		return nil, err
	}
	res.Zones = zones
	ui.StepDone("addressing", "")

	res.Host, res.HostKnown = prober.Resources(ctx)
	if res.HostKnown {
		log.Debug().Int("cpus", res.Host.CPUs).Str("memory", humanize.IBytes(res.Host.MemoryBytes)).Msg("host resources")
	}
	res.Allocations = resources.Enrich(spec, res.Host, res.HostKnown)
	switch {
	case spec.Global.ResourcePolicy == nil:
		ui.StepSkipped("resource allocation", "no resource_policy")
	case !res.HostKnown:
		ui.StepSkipped("resource allocation", "host resources unknown")
	default:
		ui.StepDone("resource allocation", fmt.Sprintf("(%d machines sized by resource_policy)", len(res.Allocations)))
	}

	res.Errors = validate.Run(spec, validate.Options{Context: res.Context})
	if len(res.Errors) == 0 {
		res.Warnings = warnings.Get(spec, warnings.Options{Context: res.Context, Prober: prober, Ctx: ctx})
	}
	return res, nil
}

// report prints warnings and errors, and returns an error when the
// specification is invalid.
func (r *pipelineResult) report() error {
	ui.Warnings(r.Warnings)
	if len(r.Errors) == 0 {
		return nil
	}
	ui.ValidationErrors(r.Errors)
	return fmt.Errorf("%d validation errors", len(r.Errors))
}
