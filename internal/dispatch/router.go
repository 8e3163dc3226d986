package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Router enables exactly one domain controller of a vehicle.
type Router struct {
	controllers [controller.NumDomains]controller.DomainController
	roles       wheelrole.Set
	logger      *slog.Logger

	active   controller.DomainController
	decision Decision
	rule     string
	idle     bool // quiescent warning already logged

	modeChanges metric.Int64Counter
}

// NewRouter wraps the controller array of one vehicle. roles are the
// resolved wheel roles of the body, used to detect tracked vehicles.
func NewRouter(controllers [controller.NumDomains]controller.DomainController, roles wheelrole.Set, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for d, c := range controllers {
		if c == nil {
			return nil, fmt.Errorf("no controller for domain %s", controller.Domain(d))
		}
	}
	r := &Router{controllers: controllers, roles: roles, logger: logger}

	var err error
	r.modeChanges, err = meter().Int64Counter(
		"dispatch.mode.changes",
		metric.WithDescription("Total changes of the active domain controller"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mode change counter: %w", err)
	}
	return r, nil
}

// SetRoles replaces the wheel roles used by the next ApplyMode.
func (r *Router) SetRoles(roles wheelrole.Set) { r.roles = roles }

// Controller returns the controller of domain d.
func (r *Router) Controller(d controller.Domain) controller.DomainController {
	if d < 0 || d >= controller.NumDomains {
		return nil
	}
	return r.controllers[d]
}

// Active returns the enabled controller, or nil while quiescent.
func (r *Router) Active() controller.DomainController { return r.active }

// Decision returns the last classification result and the name of the rule
// that produced it.
func (r *Router) Decision() (Decision, string) { return r.decision, r.rule }

// ApplyMode classifies the vehicle from its shared configuration and
// enables the matching controller. Without a configuration every controller
// is disabled and ApplyMode returns false.
func (r *Router) ApplyMode() bool {
	owner := r.owner()
	if owner == nil {
		for _, c := range r.controllers {
			c.SetEnabled(false)
		}
		r.active = nil
		if !r.idle {
			r.idle = true
			r.logger.Warn("no vehicle configuration on any controller, dispatch idle")
		}
		return false
	}
	r.idle = false

	cls := owner.Snapshot().Classification()
	dec, rule := Classify(Class{Classification: cls, HasTrackRoles: r.roles.HasTrack()})

	chosen := r.controllers[dec.Domain]
	for _, c := range r.controllers {
		if c != chosen {
			c.SetEnabled(false)
		}
	}
	if chosen.Config() != owner {
		chosen.BindConfig(owner)
	}
	chosen.SetVariant(dec.Variant)
	chosen.SetEnabled(true)

	if r.active != chosen || r.decision != dec {
		r.modeChanges.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("domain", dec.Domain.String()),
			attribute.String("variant", dec.Variant.String()),
		))
		r.logger.Info("domain controller selected",
			"domain", dec.Domain.String(), "variant", dec.Variant.String(), "rule", rule)
	}
	r.active, r.decision, r.rule = chosen, dec, rule
	return true
}

// owner finds the configuration shared by the controllers.
func (r *Router) owner() *vehicleconf.Owner {
	for _, c := range r.controllers {
		if o := c.Config(); o != nil {
			return o
		}
	}
	return nil
}
