// Package permission decides whether a generated command may run.
package permission

import (
	"fmt"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/pkg/clock"
	"github.com/doeshing/ergo/internal/ports"
)

// DecisionStore is the slice of the command store the gate needs.
type DecisionStore interface {
	NeedsConsent(name string) bool
	GetPermissionDecision(name string) (domain.PermissionDecision, bool)
	SetPermissionDecision(name string, decision domain.PermissionDecision) error
}

// Gate is the consent state machine. Per command name it moves from no
// decision to AcceptOnce, AcceptForever or Denied; the last decision wins.
type Gate struct {
	store    DecisionStore
	prompter ports.ConsentPrompter
	clock    ports.Clock
	logger   ports.Logger
}

// NewGate wires a gate.
func NewGate(store DecisionStore, prompter ports.ConsentPrompter, clk ports.Clock, logger ports.Logger) *Gate {
	return &Gate{store: store, prompter: prompter, clock: clk, logger: logger}
}

// CheckAndRequest returns the decision governing this run of name, asking the
// user when the stored one does not settle it.
func (g *Gate) CheckAndRequest(name string, record domain.CommandRecord) (domain.PermissionDecision, error) {
	if !record.RequiresPermissions() {
		return g.persist(name, record.Permissions, domain.ConsentAcceptForever)
	}

	if !g.store.NeedsConsent(name) {
		if decision, ok := g.store.GetPermissionDecision(name); ok {
			g.logger.Debug("reusing stored consent", map[string]interface{}{"name": name, "consent": string(decision.Consent)})
			return decision, nil
		}
	}

	shown := record
	shown.Name = name
	consent, err := g.prompter.RequestConsent(shown)
	if err != nil {
		return domain.PermissionDecision{}, fmt.Errorf("read consent: %w", err)
	}
	g.logger.Info("consent recorded", map[string]interface{}{"name": name, "consent": string(consent)})
	return g.persist(name, record.Permissions, consent)
}

func (g *Gate) persist(name string, perms []domain.PermissionRequest, consent domain.Consent) (domain.PermissionDecision, error) {
	shown := make([]domain.PermissionRequest, len(perms))
	copy(shown, perms)
	decision := domain.PermissionDecision{
		Permissions: shown,
		Consent:     consent,
		DecidedAt:   clock.UnixSeconds(g.clock.Now()),
	}
	if err := g.store.SetPermissionDecision(name, decision); err != nil {
		return domain.PermissionDecision{}, err
	}
	return decision, nil
}
